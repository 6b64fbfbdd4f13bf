// Package resolve turns a character name into a concrete page URL on a build
// site. Resolution is slug-match first against the site's character listing,
// with a normalized text-match fallback, and a direct-ID override for sites
// whose article IDs are uncorrelated with character names.
package resolve

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/fetch"
	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/source"
	"github.com/sells-group/buildscout/internal/textnorm"
)

// Resolver locates a character's page on a given source.
type Resolver struct {
	fetcher fetch.Fetcher
}

// New builds a Resolver on top of a page fetcher.
func New(fetcher fetch.Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve finds the character's page URL on src. A nil reference with a nil
// error means the character was not found on this source; that is an expected
// outcome that drives fallback, not a failure. Errors are reserved for the
// fetcher itself breaking.
func (r *Resolver) Resolve(ctx context.Context, src *source.Source, name string) (*model.ResolvedReference, error) {
	slug := textnorm.Slug(name)

	if url, ok := src.DirectURL(slug); ok {
		zap.L().Info("resolve: direct-id override",
			zap.String("source", src.Code),
			zap.String("character", name),
			zap.String("url", url),
		)
		return &model.ResolvedReference{URL: url, SourceCode: src.Code}, nil
	}

	listingURL := textnorm.CleanURL(src.ListingURL)

	// A listing URL that is already a deep article link needs no inspection.
	// Only sources with an article-ID scheme ever configure such URLs.
	if src.DirectURLFormat != "" && strings.Count(listingURL, "/") > 4 {
		zap.L().Info("resolve: listing url is already an article",
			zap.String("source", src.Code),
			zap.String("url", listingURL),
		)
		return &model.ResolvedReference{URL: listingURL, SourceCode: src.Code}, nil
	}

	var opts []fetch.NavOption
	if src.WaitSelector != "" {
		opts = append(opts, fetch.WithWaitSelector(src.WaitSelector))
	}
	page, err := r.fetcher.Fetch(ctx, listingURL, opts...)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: fetch listing for %s", src.Code)
	}
	doc, err := fetch.Document(page)
	if err != nil {
		return nil, err
	}

	anchors := fetch.Anchors(doc)
	anchor := matchBySegment(anchors, src.LinkSegment(slug))
	if anchor == nil {
		zap.L().Debug("resolve: slug match missed, trying text fallback",
			zap.String("source", src.Code),
			zap.String("character", name),
		)
		anchor = matchByText(anchors, name)
	}
	if anchor == nil {
		zap.L().Info("resolve: character not found on source",
			zap.String("source", src.Code),
			zap.String("character", name),
		)
		return nil, nil
	}

	url := textnorm.CleanURL(absolutize(anchor.Href, src.BaseURL))
	zap.L().Info("resolve: reference found",
		zap.String("source", src.Code),
		zap.String("character", name),
		zap.String("url", url),
	)
	return &model.ResolvedReference{URL: url, SourceCode: src.Code}, nil
}

// matchBySegment picks the first anchor whose href contains the composed link
// segment. Case-sensitive; sources list each character once, so first match
// wins.
func matchBySegment(anchors []fetch.Anchor, segment string) *fetch.Anchor {
	if segment == "" {
		return nil
	}
	for i := range anchors {
		if strings.Contains(anchors[i].Href, segment) {
			return &anchors[i]
		}
	}
	return nil
}

// matchByText falls back to comparing anchor text with the target name, both
// compacted (lower-cased, spaces/underscores/apostrophes removed). An exact
// equality anywhere on the page beats any containment match; containment is
// accepted only for targets longer than three characters and only when the
// anchor text has at least one letter, so numeric or symbol anchors never
// match short names.
func matchByText(anchors []fetch.Anchor, name string) *fetch.Anchor {
	target := textnorm.Compact(name)
	if target == "" {
		return nil
	}
	for i := range anchors {
		if textnorm.Compact(anchors[i].Text) == target {
			return &anchors[i]
		}
	}
	if len(target) <= 3 {
		return nil
	}
	for i := range anchors {
		if strings.Contains(textnorm.Compact(anchors[i].Text), target) && textnorm.ContainsAlpha(anchors[i].Text) {
			return &anchors[i]
		}
	}
	return nil
}

func absolutize(href, baseURL string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
}
