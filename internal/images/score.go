package images

import (
	"regexp"
	"strings"

	"github.com/sells-group/buildscout/internal/textnorm"
)

var tinyThumbRe = regexp.MustCompile(`/\d+x\d+(\.|/)|thumb|thumbnail`)

// isPlaceholder reports whether the URL is structurally present but not
// meaningful content: data URIs, sprite/icon vectors, search-engine thumbnail
// proxies, and self-described blank assets.
func isPlaceholder(src string) bool {
	if src == "" {
		return true
	}
	s := strings.ToLower(src)
	if strings.HasPrefix(s, "data:") {
		return true
	}
	if strings.HasSuffix(s, ".svg") && (strings.Contains(s, "rp/") || strings.Contains(s, "sprite") || strings.Contains(s, "icons")) {
		return true
	}
	if strings.Contains(s, "/rp/") || strings.Contains(s, "/th?id=") || strings.Contains(s, "placeholder") || strings.Contains(s, "blank") {
		return true
	}
	return tinyThumbRe.MatchString(s)
}

// matchScore rates a candidate's relevance to the label in [0,1]. Exact
// substring hits on alt, filename, or caption each contribute a full point;
// token overlap with the surrounding text and the URL are secondary signals.
// The sum clamps to 1.0, so any single exact hit dominates.
func matchScore(label, src, alt, parentText, filename, caption string) float64 {
	labelN := textnorm.Normalize(label)
	if labelN == "" {
		return 0.0
	}
	score := 0.0
	if strings.Contains(textnorm.Normalize(alt), labelN) {
		score += 1.0
	}
	if strings.Contains(textnorm.Normalize(filename), labelN) {
		score += 1.0
	}
	if strings.Contains(textnorm.Normalize(caption), labelN) {
		score += 1.0
	}
	score += 0.45 * textnorm.TokenOverlap(label, parentText)
	score += 0.45 * textnorm.TokenOverlap(label, src)
	if score > 1.0 {
		return 1.0
	}
	return score
}
