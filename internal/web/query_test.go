package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buildscout/internal/source"
)

func loadRegistry(t *testing.T) *source.Registry {
	t.Helper()
	reg, err := source.Load()
	require.NoError(t, err)
	return reg
}

func TestParseQuery_GameAndCharacter(t *testing.T) {
	reg := loadRegistry(t)

	tests := []struct {
		text     string
		game     string
		charName string
	}{
		{"build for acheron honkai star rail", "HSR", "acheron"},
		{"quiero la build completa de furina genshin impact", "GI", "furina"},
		{"zhu yuan zenless zone zero weapons", "ZZZ", "zhu yuan"},
		{"dame el equipo de dan heng hsr", "HSR", "dan heng"},
	}
	for _, tt := range tests {
		q := ParseQuery(reg, tt.text)
		assert.Equal(t, tt.game, q.Game.Code, tt.text)
		assert.Equal(t, tt.charName, q.Character, tt.text)
	}
}

func TestParseQuery_NoCharacter(t *testing.T) {
	reg := loadRegistry(t)
	q := ParseQuery(reg, "build completa hsr")
	assert.Empty(t, q.Character)
}

func TestParseQuery_SpecificKeys(t *testing.T) {
	reg := loadRegistry(t)

	q := ParseQuery(reg, "team compositions for acheron hsr")
	assert.Contains(t, q.RequestedKeys, "team_recommendations")
	assert.NotContains(t, q.RequestedKeys, "weapon_recommendations")
	assert.Contains(t, q.RequestedKeys, "character_name")
}

func TestParseQuery_FullBuildExpandsSchema(t *testing.T) {
	reg := loadRegistry(t)

	q := ParseQuery(reg, "full build for acheron hsr")
	assert.Contains(t, q.RequestedKeys, "weapon_recommendations")
	assert.Contains(t, q.RequestedKeys, "team_recommendations")
	assert.Contains(t, q.RequestedKeys, "final_stats_targets")
}

func TestParseQuery_BareNameGetsEverything(t *testing.T) {
	reg := loadRegistry(t)

	q := ParseQuery(reg, "acheron hsr")
	assert.Contains(t, q.RequestedKeys, "weapon_recommendations")
}

func TestParseQuery_NoDuplicateKeys(t *testing.T) {
	reg := loadRegistry(t)

	q := ParseQuery(reg, "full build with weapons and teams for acheron hsr")
	seen := map[string]int{}
	for _, k := range q.RequestedKeys {
		seen[k]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, k)
	}
}
