package research

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buildscout/internal/analyze"
	"github.com/sells-group/buildscout/internal/config"
	"github.com/sells-group/buildscout/internal/extract"
	"github.com/sells-group/buildscout/internal/fetch"
	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/resolve"
	"github.com/sells-group/buildscout/internal/source"
)

// fakeFetcher serves canned HTML per URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ ...fetch.NavOption) (*fetch.Page, error) {
	html, ok := f.pages[url]
	if !ok {
		return nil, eris.Errorf("no page for %s", url)
	}
	return &fetch.Page{URL: url, HTML: html}, nil
}

// fakeAnalyzer returns a canned record per source text marker.
type fakeAnalyzer struct {
	perMarker map[string]model.BuildRecord
	err       error
	calls     int
}

func (a *fakeAnalyzer) Analyze(_ context.Context, req analyze.Request) (model.BuildRecord, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	for marker, rec := range a.perMarker {
		if strings.Contains(req.Text, marker) {
			out := make(model.BuildRecord, len(rec))
			for k, v := range rec {
				out[k] = v
			}
			return out, nil
		}
	}
	return model.BuildRecord{}, nil
}

// memStore records merges in memory.
type memStore struct {
	merged []model.BuildRecord
	err    error
}

func (s *memStore) Merge(_ context.Context, _ string, record model.BuildRecord) error {
	if s.err != nil {
		return s.err
	}
	s.merged = append(s.merged, record)
	return nil
}

func (s *memStore) Get(context.Context, string, string, string) (model.BuildRecord, bool, error) {
	return nil, false, nil
}

func (s *memStore) List(context.Context, string) (map[string]model.BuildRecord, error) {
	return nil, nil
}

func listing(href, text string) string {
	return `<html><body><a href="` + href + `">` + text + `</a></body></html>`
}

func article(marker string, chars int) string {
	return `<html><body><main>` + marker + " " + strings.Repeat("x ", chars/2) + `</main></body></html>`
}

// testWorld wires three sources: Alpha resolves but its page is too short,
// Beta resolves but analysis is non-viable, Gamma succeeds.
func testWorld(t *testing.T) (*Orchestrator, *memStore, *fakeAnalyzer) {
	t.Helper()

	mkSource := func(code string) source.Source {
		lower := strings.ToLower(code)
		return source.Source{
			Code:             code,
			ListingURL:       "https://" + lower + ".example/characters",
			BaseURL:          "https://" + lower + ".example",
			SegmentTemplate:  "/characters/%s",
			ContentSelectors: []string{"main"},
		}
	}
	reg, err := source.NewRegistry([]source.Game{{
		Code:      "HSR",
		TeamSize:  4,
		StoreFile: "builds_hsr.json",
		Schema:    model.FieldSchema{"weapon_recommendations": []any{}},
		Sources:   []source.Source{mkSource("Alpha"), mkSource("Beta"), mkSource("Gamma")},
	}})
	require.NoError(t, err)

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://alpha.example/characters": listing("/characters/acheron", "Acheron"),
		"https://beta.example/characters":  listing("/characters/acheron", "Acheron"),
		"https://gamma.example/characters": listing("/characters/acheron", "Acheron"),
		"https://alpha.example/characters/acheron": article("ALPHA", 40),
		"https://beta.example/characters/acheron":  article("BETA", 1200),
		"https://gamma.example/characters/acheron": article("GAMMA", 1200),
	}}

	analyzer := &fakeAnalyzer{perMarker: map[string]model.BuildRecord{
		"BETA":  {"weapon_recommendations": []any{}},
		"GAMMA": {"weapon_recommendations": []any{"Along the Passing Shore"}},
	}}

	st := &memStore{}
	orch := NewOrchestrator(
		reg,
		resolve.New(fetcher),
		fetcher,
		extract.NewGate(500),
		analyzer,
		st,
		config.ResearchConfig{TimeoutSecs: 30, MinTextChars: 500},
	)
	return orch, st, analyzer
}

func TestRun_FallbackAcceptsThirdSource(t *testing.T) {
	orch, st, analyzer := testWorld(t)

	record, err := orch.Run(context.Background(), Request{Game: "HSR", Character: "Acheron"})
	require.NoError(t, err)

	assert.Equal(t, "Gamma", record[model.KeySource])
	assert.Equal(t, "HSR", record[model.KeyGame])
	assert.Equal(t, "Acheron", record[model.KeyCharacterName])
	assert.Equal(t, "first viable source in priority order: Gamma", record[model.KeySelectionReason])

	// Alpha never reaches the analyzer; Beta does but is not persisted.
	assert.Equal(t, 2, analyzer.calls)
	require.Len(t, st.merged, 1)
	assert.Equal(t, "Gamma", st.merged[0][model.KeySource])
}

func TestRun_PreferredSourceReason(t *testing.T) {
	orch, st, _ := testWorld(t)

	record, err := orch.Run(context.Background(), Request{
		Game:            "HSR",
		Character:       "Acheron",
		PreferredSource: "Gamma",
	})
	require.NoError(t, err)

	assert.Equal(t, "user preferred source: Gamma", record[model.KeySelectionReason])
	require.Len(t, st.merged, 1)
}

func TestRun_Exhausted(t *testing.T) {
	orch, st, analyzer := testWorld(t)
	analyzer.perMarker = nil // every analysis comes back empty

	_, err := orch.Run(context.Background(), Request{Game: "HSR", Character: "Acheron"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoViableBuild)
	assert.Empty(t, st.merged)
}

func TestRun_UnknownGame(t *testing.T) {
	orch, _, _ := testWorld(t)
	_, err := orch.Run(context.Background(), Request{Game: "nope", Character: "Acheron"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoViableBuild)
}

func TestRun_PersistFailureSurfaces(t *testing.T) {
	orch, st, _ := testWorld(t)
	st.err = eris.New("disk full")

	_, err := orch.Run(context.Background(), Request{Game: "HSR", Character: "Acheron"})
	assert.Error(t, err)
}

func TestRun_CanceledContext(t *testing.T) {
	orch, _, _ := testWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Run(ctx, Request{Game: "HSR", Character: "Acheron"})
	require.Error(t, err)
	// Deadline expiry reads as exhaustion to callers branching on the sentinel.
	assert.ErrorIs(t, err, ErrNoViableBuild)
}
