package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Document parses the rendered HTML of a page.
func Document(page *Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: parse document %s", page.URL)
	}
	return doc, nil
}

// Anchors returns every link on the document, href first-wins per element,
// with visible text trimmed.
func Anchors(doc *goquery.Document) []Anchor {
	var out []Anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		out = append(out, Anchor{
			Href: strings.TrimSpace(href),
			Text: strings.TrimSpace(sel.Text()),
		})
	})
	return out
}
