// Package images discovers artwork for a search label. It drives the browser
// across a fixed set of seed search pages, merges DOM and network-observed
// image candidates, filters placeholder assets, scores relevance against the
// label, verifies reachability, and returns a small capped list in discovery
// order. Images are an enrichment: the pipeline never fails outward, it just
// returns fewer results.
package images

import (
	"context"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/config"
	"github.com/sells-group/buildscout/internal/fetch"
	"github.com/sells-group/buildscout/internal/model"
)

// seedTemplates are the image-bearing sites searched per label: the community
// index, a general image search, and an artwork index. Fixed list traversal,
// not crawling.
var seedTemplates = []string{
	"https://www.hoyolab.com/search?keyword=%s",
	"https://www.bing.com/images/search?q=%s",
	"https://www.pixiv.net/en/tags/%s/artworks",
}

// Prober abstracts the reachability check.
type Prober interface {
	Status(ctx context.Context, url, referer string) int
}

// Pipeline finds and ranks image candidates for a label.
type Pipeline struct {
	fetcher fetch.Fetcher
	prober  Prober
	cfg     config.ImagesConfig
}

// NewPipeline wires the image search.
func NewPipeline(fetcher fetch.Fetcher, prober Prober, cfg config.ImagesConfig) *Pipeline {
	return &Pipeline{fetcher: fetcher, prober: prober, cfg: cfg}
}

// Find returns up to max accepted candidates for the label, in discovery
// order. max at or below zero falls back to the configured cap. An empty
// label or a total failure yields an empty slice, never an error.
func (p *Pipeline) Find(ctx context.Context, label string, max int) []model.ScoredCandidate {
	if strings.TrimSpace(label) == "" {
		return nil
	}
	if max <= 0 {
		max = p.cfg.MaxResults
	}

	seen := make(map[string]struct{})
	var accepted []model.ScoredCandidate

	for _, tmpl := range seedTemplates {
		if len(accepted) >= max {
			break
		}
		if ctx.Err() != nil {
			break
		}
		seed := strings.Replace(tmpl, "%s", url.QueryEscape(label), 1)

		candidates, err := p.collectSeed(ctx, seed)
		if err != nil {
			zap.L().Warn("images: seed failed",
				zap.String("seed", seed),
				zap.Error(err),
			)
			continue
		}

		for _, cand := range candidates {
			if len(accepted) >= max {
				break
			}
			if _, dup := seen[cand.URL]; dup {
				continue
			}
			seen[cand.URL] = struct{}{}

			if isPlaceholder(cand.URL) {
				continue
			}

			scored := p.evaluate(ctx, label, cand)
			if !p.accepts(scored) {
				zap.L().Debug("images: candidate rejected",
					zap.String("url", scored.URL),
					zap.Float64("score", scored.Score),
					zap.Int("status", scored.HTTPStatus),
				)
				continue
			}
			accepted = append(accepted, scored)
		}
	}

	zap.L().Info("images: search complete",
		zap.String("label", label),
		zap.Int("accepted", len(accepted)),
	)
	return accepted
}

// collectSeed renders one seed page and merges DOM images with image
// resources observed on the network during the visit. Candidate URLs come out
// canonical (query string stripped).
func (p *Pipeline) collectSeed(ctx context.Context, seed string) ([]model.ImageCandidate, error) {
	page, err := p.fetcher.Fetch(ctx, seed,
		fetch.WithImageCapture(),
		fetch.WithScroll(p.cfg.ScrollPasses),
		fetch.WithConsentDismiss(),
	)
	if err != nil {
		return nil, err
	}

	var out []model.ImageCandidate
	for _, img := range page.Images {
		clean := stripQuery(img.Src)
		out = append(out, model.ImageCandidate{
			URL:        clean,
			AltText:    firstNonEmpty(img.Alt, img.Title),
			ParentText: img.ParentText,
			Filename:   filenameOf(clean),
			Caption:    img.Caption,
			FoundOn:    page.URL,
		})
	}
	for _, netURL := range page.NetworkImages {
		out = append(out, model.ImageCandidate{
			URL:      netURL,
			Filename: filenameOf(netURL),
			FoundOn:  page.URL,
		})
	}
	return out, nil
}

func (p *Pipeline) evaluate(ctx context.Context, label string, cand model.ImageCandidate) model.ScoredCandidate {
	return model.ScoredCandidate{
		ImageCandidate: cand,
		Score:          matchScore(label, cand.URL, cand.AltText, cand.ParentText, cand.Filename, cand.Caption),
		HTTPStatus:     p.prober.Status(ctx, cand.URL, cand.FoundOn),
	}
}

// accepts applies the three-tier policy: a solid score with confirmed
// reachability, a confident score regardless of status (reachability checks
// have false negatives against bot-hostile CDNs), or a reachable candidate at
// the relaxed floor.
func (p *Pipeline) accepts(c model.ScoredCandidate) bool {
	reachable := c.HTTPStatus == 200
	switch {
	case c.Score >= p.cfg.AcceptScore && reachable:
		return true
	case c.Score >= p.cfg.ConfidentScore:
		return true
	case reachable && c.Score >= p.cfg.RelaxedScore:
		return true
	}
	return false
}

func stripQuery(raw string) string {
	if idx := strings.IndexAny(raw, "?#"); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

func filenameOf(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
