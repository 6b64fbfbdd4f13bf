package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	games := reg.Games()
	require.Len(t, games, 3)

	for _, g := range games {
		assert.NotEmpty(t, g.Code)
		assert.NotEmpty(t, g.StoreFile)
		assert.Positive(t, g.TeamSize)
		assert.NotEmpty(t, g.Schema)
		require.NotEmpty(t, g.Sources)
		for _, s := range g.Sources {
			assert.NotEmpty(t, s.ListingURL, "%s/%s", g.Code, s.Code)
			assert.NotEmpty(t, s.BaseURL, "%s/%s", g.Code, s.Code)
			assert.NotEmpty(t, s.ContentSelectors, "%s/%s", g.Code, s.Code)
			assert.Equal(t, g.Code, s.Game)
		}
	}
}

func TestSource_LinkSegment(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	hsr, ok := reg.Game("hsr")
	require.True(t, ok)

	prydwen, ok := hsr.Source("Prydwen")
	require.True(t, ok)
	assert.Equal(t, "/star-rail/characters/acheron", prydwen.LinkSegment("acheron"))

	lab, ok := hsr.Source("HonkaiLab")
	require.True(t, ok)
	assert.Equal(t, "jingliu-build", lab.LinkSegment("jingliu"))

	// Composition is pure: same inputs, same output.
	assert.Equal(t, prydwen.LinkSegment("acheron"), prydwen.LinkSegment("acheron"))
}

func TestSource_DirectURL(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	gi, ok := reg.Game("GI")
	require.True(t, ok)
	gw, ok := gi.Source("GameWithJP")
	require.True(t, ok)

	url, ok := gw.DirectURL("furina")
	require.True(t, ok)
	assert.Equal(t, "https://gamewith.jp/genshin/article/show/407254", url)

	// Hyphenated slugs match the de-hyphenated table key.
	_, ok = gw.DirectURL("neu-villette")
	assert.True(t, ok)

	_, ok = gw.DirectURL("unknown-character")
	assert.False(t, ok)

	// Sources without a table never short-circuit.
	pw, _ := reg.Games()[0].Source("Prydwen")
	_, ok = pw.DirectURL("furina")
	assert.False(t, ok)
}

func TestGame_PrioritizedSources(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)
	hsr, _ := reg.Game("HSR")

	def := hsr.PrioritizedSources("")
	require.Len(t, def, 2)
	assert.Equal(t, "Prydwen", def[0].Code)

	reordered := hsr.PrioritizedSources("HonkaiLab")
	require.Len(t, reordered, 2)
	assert.Equal(t, "HonkaiLab", reordered[0].Code)
	assert.Equal(t, "Prydwen", reordered[1].Code)

	unknown := hsr.PrioritizedSources("NotASource")
	assert.Equal(t, def, unknown)
}

func TestRegistry_DetectGame(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		text string
		want string
	}{
		{"best build for acheron honkai star rail", "HSR"},
		{"zhu yuan zenless zone zero", "ZZZ"},
		{"zzz miyabi team", "ZZZ"},
		{"furina genshin impact artifacts", "GI"},
		{"build for gi navia", "GI"},
		{"random text with no game", "HSR"},
		{"giant robot game", "HSR"}, // "gi" must not fire inside "giant"
	}
	for _, tt := range tests {
		got := reg.DetectGame(tt.text)
		assert.Equal(t, tt.want, got.Code, "text=%q", tt.text)
	}
}
