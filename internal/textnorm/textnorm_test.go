package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases", "Acheron", "acheron"},
		{"strips diacritics", "Raidén Shōgun", "raiden shogun"},
		{"collapses whitespace", "  Jing   Yuan \t", "jing yuan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 1.0, TokenOverlap("acheron star rail", "acheron star rail"))
	assert.Equal(t, 0.0, TokenOverlap("acheron", "firefly"))
	assert.Equal(t, 0.0, TokenOverlap("", "anything"))
	assert.Equal(t, 0.0, TokenOverlap("---", "anything"))

	// Half the tokens shared: |{a}| / ((2+2)/2) with sets {a,b} and {a,c}.
	got := TokenOverlap("alpha beta", "alpha gamma")
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestTokenOverlap_DuplicateTokensCountOnce(t *testing.T) {
	assert.Equal(t, 1.0, TokenOverlap("acheron acheron", "acheron"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jing Yuan", "jing-yuan"},
		{"Topaz_and_Numby", "topaz-and-numby"},
		{"Lan'er", "laner"},
		{"  Acheron  ", "acheron"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in))
	}
}

func TestSlug_Idempotent(t *testing.T) {
	for _, name := range []string{"Jing Yuan", "Dan Heng - Imbibitor Lunae", "Lan'er", "ZHU YUAN"} {
		once := Slug(name)
		assert.Equal(t, once, Slug(once), "Slug must be idempotent for %q", name)
	}
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "jingyuan", Compact("Jing Yuan"))
	assert.Equal(t, "laner", Compact("Lan'er"))
	assert.Equal(t, "zhuyuan", Compact("zhu_yuan"))
}

func TestContainsAlpha(t *testing.T) {
	assert.True(t, ContainsAlpha("7th March"))
	assert.False(t, ContainsAlpha("12345"))
	assert.False(t, ContainsAlpha("#!?"))
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com/a", "https://example.com/a"},
		{"markdown link", "[text](https://example.com/a)", "https://example.com/a"},
		{"brackets", "[https://example.com/a]", "https://example.com/a"},
		{"quoted", `"https://example.com/a"`, "https://example.com/a"},
		{"trailing tokens", "https://example.com/a extra words", "https://example.com/a"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanURL(tt.in))
		})
	}
}
