package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/buildscout/internal/analyze"
	"github.com/sells-group/buildscout/internal/extract"
	"github.com/sells-group/buildscout/internal/fetch"
	"github.com/sells-group/buildscout/internal/images"
	"github.com/sells-group/buildscout/internal/research"
	"github.com/sells-group/buildscout/internal/resolve"
	"github.com/sells-group/buildscout/internal/source"
	"github.com/sells-group/buildscout/internal/store"
	anthropicpkg "github.com/sells-group/buildscout/pkg/anthropic"
)

// env holds the wired pipeline components shared by the commands.
type env struct {
	Registry     *source.Registry
	Browser      *fetch.Browser
	Orchestrator *research.Orchestrator
	Images       *images.Pipeline
	Store        *store.JSONStore
}

// initEnv builds the full component graph from config. Close releases the
// browser process.
func initEnv() (*env, error) {
	registry, err := source.Load()
	if err != nil {
		return nil, err
	}

	browser, err := fetch.NewBrowser(cfg.Fetch)
	if err != nil {
		return nil, err
	}

	st, err := store.NewJSONStore(cfg.Store.Dir)
	if err != nil {
		browser.Close()
		return nil, eris.Wrap(err, "init store")
	}

	analyzer := analyze.NewClaudeAnalyzer(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic)

	orchestrator := research.NewOrchestrator(
		registry,
		resolve.New(browser),
		browser,
		extract.NewGate(cfg.Research.MinTextChars),
		analyzer,
		st,
		cfg.Research,
	)

	pipeline := images.NewPipeline(browser, fetch.NewProber(cfg.Fetch), cfg.Images)

	return &env{
		Registry:     registry,
		Browser:      browser,
		Orchestrator: orchestrator,
		Images:       pipeline,
		Store:        st,
	}, nil
}

func (e *env) Close() {
	e.Browser.Close()
}
