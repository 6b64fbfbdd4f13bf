package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRecord_Viable(t *testing.T) {
	tests := []struct {
		name   string
		record BuildRecord
		want   bool
	}{
		{
			name: "populated weapon list is viable",
			record: BuildRecord{
				KeyCharacterName:         "acheron",
				"weapon_recommendations": []any{"Along the Passing Shore"},
			},
			want: true,
		},
		{
			name: "identity fields alone are not viable",
			record: BuildRecord{
				KeyCharacterName: "acheron",
				KeyGame:          "HSR",
				KeySource:        "Prydwen",
				KeyBuildName:     "Best Overall Build",
				KeyMainStats:     map[string]any{"body": "CRIT DMG"},
			},
			want: false,
		},
		{
			name: "empty collections everywhere is not viable",
			record: BuildRecord{
				KeyCharacterName:         "acheron",
				"weapon_recommendations": []any{},
				"team_recommendations":   []any{},
				"final_stats_targets":    map[string]any{"HP": "", "ATK": ""},
			},
			want: false,
		},
		{
			name: "one populated stat target flips viability",
			record: BuildRecord{
				"final_stats_targets": map[string]any{"HP": "", "CRIT Rate": "50%"},
			},
			want: true,
		},
		{
			name:   "empty record",
			record: BuildRecord{},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Viable())
		})
	}
}

func TestBuildRecord_SetMetadata(t *testing.T) {
	r := BuildRecord{"weapon_recommendations": []any{"w"}}
	r.SetMetadata("HSR", "Prydwen", "acheron", "first viable source in priority order: Prydwen")

	assert.Equal(t, "HSR", r[KeyGame])
	assert.Equal(t, "Prydwen", r[KeySource])
	assert.Equal(t, "acheron", r[KeyCharacterName])
	assert.Contains(t, r[KeySelectionReason], "Prydwen")
}

func TestBuildRecord_Filter(t *testing.T) {
	r := BuildRecord{
		KeyCharacterName:         "acheron",
		"weapon_recommendations": []any{"w"},
		"team_recommendations":   []any{"t"},
	}
	got := r.Filter([]string{KeyCharacterName, "team_recommendations", "missing_key"})

	assert.Len(t, got, 2)
	assert.Equal(t, "acheron", got[KeyCharacterName])
	assert.NotContains(t, got, "weapon_recommendations")
}

func TestFieldSchema_Clone(t *testing.T) {
	schema := FieldSchema{"weapon_recommendations": []any{}}
	clone := schema.Clone()
	clone["weapon_recommendations"] = []any{"mutated"}

	assert.Empty(t, schema["weapon_recommendations"])
}
