// Package research runs the source fallback loop: resolve a character's page
// on each source in priority order, extract its text, analyze it, and accept
// the first viable record. Not-found, too-short, and non-viable outcomes are
// expected and advance to the next source; only exhaustion reaches the caller.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/analyze"
	"github.com/sells-group/buildscout/internal/config"
	"github.com/sells-group/buildscout/internal/extract"
	"github.com/sells-group/buildscout/internal/fetch"
	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/resolve"
	"github.com/sells-group/buildscout/internal/source"
	"github.com/sells-group/buildscout/internal/store"
)

// ErrNoViableBuild is returned when every source was tried and none yielded a
// viable record.
var ErrNoViableBuild = eris.New("research: no source yielded a viable build")

// Request is one research run for a character.
type Request struct {
	Game            string
	Character       string
	PreferredSource string
	Locale          string
}

// Orchestrator drives resolver, extractor, and analyzer per source and
// persists the first accepted record.
type Orchestrator struct {
	registry *source.Registry
	resolver *resolve.Resolver
	fetcher  fetch.Fetcher
	gate     *extract.Gate
	analyzer analyze.Analyzer
	store    store.Store
	cfg      config.ResearchConfig
}

// NewOrchestrator wires the research pipeline.
func NewOrchestrator(
	registry *source.Registry,
	resolver *resolve.Resolver,
	fetcher fetch.Fetcher,
	gate *extract.Gate,
	analyzer analyze.Analyzer,
	st store.Store,
	cfg config.ResearchConfig,
) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		resolver: resolver,
		fetcher:  fetcher,
		gate:     gate,
		analyzer: analyzer,
		store:    st,
		cfg:      cfg,
	}
}

// Run executes the fallback loop and returns the accepted record. Each source
// gets exactly one resolve/extract/analyze attempt per request. The whole run
// is bounded by the configured research timeout.
func (o *Orchestrator) Run(ctx context.Context, req Request) (model.BuildRecord, error) {
	if o.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	game, ok := o.registry.Game(req.Game)
	if !ok {
		return nil, eris.Errorf("research: unknown game %q", req.Game)
	}

	sources := game.PrioritizedSources(req.PreferredSource)
	zap.L().Info("research: starting run",
		zap.String("game", game.Code),
		zap.String("character", req.Character),
		zap.String("preferred_source", req.PreferredSource),
		zap.Int("sources", len(sources)),
	)

	for i := range sources {
		src := &sources[i]
		if err := ctx.Err(); err != nil {
			zap.L().Warn("research: run deadline hit",
				zap.String("game", game.Code),
				zap.String("character", req.Character),
				zap.Error(err),
			)
			return nil, eris.Wrap(ErrNoViableBuild, "research: run deadline hit")
		}

		record, ok := o.trySource(ctx, src, game, req)
		if !ok {
			continue
		}

		reason := selectionReason(src.Code, req.PreferredSource)
		record.SetMetadata(game.Code, src.Code, req.Character, reason)

		if err := o.store.Merge(ctx, game.StoreFile, record); err != nil {
			return nil, eris.Wrap(err, "research: persist record")
		}

		zap.L().Info("research: build accepted",
			zap.String("game", game.Code),
			zap.String("character", req.Character),
			zap.String("source", src.Code),
			zap.String("reason", reason),
		)
		return record, nil
	}

	zap.L().Warn("research: all sources exhausted",
		zap.String("game", game.Code),
		zap.String("character", req.Character),
	)
	return nil, ErrNoViableBuild
}

// trySource makes the single attempt this source gets. Every failure mode
// logs and returns false; the loop advances.
func (o *Orchestrator) trySource(ctx context.Context, src *source.Source, game *source.Game, req Request) (model.BuildRecord, bool) {
	log := zap.L().With(
		zap.String("source", src.Code),
		zap.String("character", req.Character),
	)

	ref, err := o.resolver.Resolve(ctx, src, req.Character)
	if err != nil {
		log.Warn("research: resolver failed", zap.Error(err))
		return nil, false
	}
	if ref == nil {
		log.Info("research: not found on source")
		return nil, false
	}

	page, err := o.fetcher.Fetch(ctx, ref.URL,
		fetch.WithWaitSelector("h1, article, body"),
		fetch.WithConsentDismiss(),
	)
	if err != nil {
		log.Warn("research: page fetch failed", zap.String("url", ref.URL), zap.Error(err))
		return nil, false
	}
	doc, err := fetch.Document(page)
	if err != nil {
		log.Warn("research: document parse failed", zap.Error(err))
		return nil, false
	}

	res := o.gate.Extract(doc, src)
	if !res.Usable {
		log.Info("research: extraction below threshold")
		return nil, false
	}

	record, err := o.analyzer.Analyze(ctx, analyze.Request{
		Game:      game.Code,
		Character: req.Character,
		Text:      res.Text,
		Schema:    game.Schema.Clone(),
		TeamSize:  game.TeamSize,
		Locale:    req.Locale,
	})
	if err != nil {
		log.Warn("research: analysis failed", zap.Error(err))
		return nil, false
	}
	if !record.Viable() {
		log.Info("research: analysis produced a non-viable record")
		return nil, false
	}

	return record, true
}

func selectionReason(sourceCode, preferred string) string {
	if preferred != "" && strings.EqualFold(sourceCode, preferred) {
		return fmt.Sprintf("user preferred source: %s", sourceCode)
	}
	return fmt.Sprintf("first viable source in priority order: %s", sourceCode)
}
