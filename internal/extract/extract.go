// Package extract pulls usable build text out of a rendered page. Each source
// declares its content container; text below the usability threshold is
// discarded as noise (consent walls, stub pages).
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/source"
)

// Gate selects the right content container per source and enforces the
// minimum usable length.
type Gate struct {
	minChars int
}

// NewGate builds a Gate. minChars at or below zero falls back to the standard
// threshold.
func NewGate(minChars int) *Gate {
	if minChars <= 0 {
		minChars = model.MinUsableTextChars
	}
	return &Gate{minChars: minChars}
}

// Extract returns the text of the page's content container. Selector
// precedence is the source's declared containers, then the main landmark,
// then the whole body. A result shorter than the threshold is an extraction
// failure: empty text, not usable.
func (g *Gate) Extract(doc *goquery.Document, src *source.Source) model.ExtractionResult {
	container := doc.Selection
	for _, sel := range append(append([]string{}, src.ContentSelectors...), "main", "body") {
		if found := doc.Find(sel); found.Length() > 0 {
			container = found.First()
			break
		}
	}

	text := collapseText(container)
	chars := utf8.RuneCountInString(text)
	if chars < g.minChars {
		zap.L().Info("extract: text below usability threshold",
			zap.String("source", src.Code),
			zap.Int("chars", chars),
			zap.Int("min_chars", g.minChars),
		)
		return model.ExtractionResult{}
	}

	zap.L().Debug("extract: usable text",
		zap.String("source", src.Code),
		zap.Int("chars", chars),
	)
	return model.ExtractionResult{Text: text, Usable: true}
}

// collapseText concatenates every text node in the selection, separated by
// single spaces.
func collapseText(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		walkText(node, &parts)
	}
	return strings.Join(parts, " ")
}

func walkText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, strings.Join(strings.Fields(t), " "))
		}
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, parts)
	}
}
