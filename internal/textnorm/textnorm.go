// Package textnorm provides the string normalization primitives shared by
// reference resolution and image relevance scoring.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`\W+`)

	// stripMarks decomposes to NFKD and drops combining marks, so "Raidén"
	// and "Raiden" normalize to the same token stream.
	stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
)

// Normalize strips diacritical marks, lower-cases, collapses runs of
// whitespace to a single space, and trims. Total function; empty in, empty out.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	stripped = whitespaceRe.ReplaceAllString(stripped, " ")
	return strings.ToLower(strings.TrimSpace(stripped))
}

// TokenOverlap tokenizes both normalized strings on non-word boundaries into
// sets of unique tokens and returns |intersection| / ((|A|+|B|)/2). Returns 0
// when either side yields no tokens.
func TokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	denom := float64(len(setA)+len(setB)) / 2.0
	return float64(inter) / denom
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range nonWordRe.Split(Normalize(s), -1) {
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Slug turns a free-text entity name into a URL-safe segment: trimmed,
// lower-cased, spaces and underscores hyphenated, apostrophes removed.
// Idempotent: Slug(Slug(s)) == Slug(s).
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	return s
}

// Compact lowers a string and removes spaces, underscores, and apostrophes.
// Used for the resolver's anchor-text equality fallback, where sites disagree
// on spacing ("Jingliu" vs "Jing Liu").
func Compact(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(" ", "", "_", "", "'", "", "’", "")
	return r.Replace(s)
}

// ContainsAlpha reports whether s contains at least one letter. Guards the
// resolver's substring fallback against purely numeric or symbol anchors.
func ContainsAlpha(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

var parenURLRe = regexp.MustCompile(`\(https?://[^)]+\)`)

// CleanURL strips markdown-link decoration from a URL string: a
// "(https://...)" group wins outright, otherwise surrounding brackets,
// parentheses, and quotes are removed and everything after the first
// whitespace is dropped.
func CleanURL(raw string) string {
	if raw == "" {
		return raw
	}
	if m := parenURLRe.FindString(raw); m != "" {
		return strings.Trim(m, "()")
	}
	r := strings.NewReplacer("[", "", "]", "", "(", "", ")", "", `"`, "")
	cleaned := strings.TrimSpace(r.Replace(raw))
	if idx := strings.IndexFunc(cleaned, unicode.IsSpace); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}
