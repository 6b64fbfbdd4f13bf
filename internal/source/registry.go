// Package source holds the table of supported games and build sites. Each
// site's resolution and extraction behavior is data in games.yaml, so adding
// a source is a new table entry, not new code.
package source

import (
	"fmt"
	"strings"

	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/textnorm"
)

//go:embed games.yaml
var gamesYAML []byte

// Source describes one build site for one game: where its character listing
// lives, how a character slug composes into a link segment, and which content
// container to extract from.
type Source struct {
	Code             string            `yaml:"code"`
	ListingURL       string            `yaml:"listing_url"`
	BaseURL          string            `yaml:"base_url"`
	SegmentTemplate  string            `yaml:"segment_template"`
	WaitSelector     string            `yaml:"wait_selector"`
	ContentSelectors []string          `yaml:"content_selectors"`
	DirectIDs        map[string]string `yaml:"direct_ids"`
	DirectURLFormat  string            `yaml:"direct_url_template"`

	// Game is the owning game code, filled in at load time.
	Game string `yaml:"-"`
}

// LinkSegment composes the character slug with this source's segment pattern.
// Pure function of (source, slug).
func (s Source) LinkSegment(slug string) string {
	if s.SegmentTemplate == "" {
		return slug
	}
	return fmt.Sprintf(s.SegmentTemplate, slug)
}

// DirectURL looks the slug up in the source's direct-ID table (hyphens
// removed, matching how the table is keyed) and returns the pre-built article
// URL. Some sites key articles by opaque numeric IDs uncorrelated with
// character names; this bypasses listing-page inspection entirely.
func (s Source) DirectURL(slug string) (string, bool) {
	if len(s.DirectIDs) == 0 || s.DirectURLFormat == "" {
		return "", false
	}
	key := strings.ReplaceAll(slug, "-", "")
	id, ok := s.DirectIDs[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(s.DirectURLFormat, id), true
}

// Game groups the sources, analyzer schema, and store location for one title.
type Game struct {
	Code      string            `yaml:"code"`
	Name      string            `yaml:"name"`
	TeamSize  int               `yaml:"team_size"`
	StoreFile string            `yaml:"store_file"`
	Keywords  []string          `yaml:"keywords"`
	Schema    model.FieldSchema `yaml:"schema"`
	Sources   []Source          `yaml:"sources"`
}

// Source returns the game's source with the given code.
func (g *Game) Source(code string) (*Source, bool) {
	for i := range g.Sources {
		if strings.EqualFold(g.Sources[i].Code, code) {
			return &g.Sources[i], true
		}
	}
	return nil, false
}

// PrioritizedSources returns the game's sources with the preferred code moved
// to the front, preserving the relative order of the rest. An empty or
// unknown preference returns the declared default order.
func (g *Game) PrioritizedSources(preferred string) []Source {
	if preferred == "" {
		return g.Sources
	}
	ordered := make([]Source, 0, len(g.Sources))
	for _, s := range g.Sources {
		if strings.EqualFold(s.Code, preferred) {
			ordered = append(ordered, s)
		}
	}
	if len(ordered) == 0 {
		return g.Sources
	}
	for _, s := range g.Sources {
		if !strings.EqualFold(s.Code, preferred) {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// Registry is the loaded game/source table.
type Registry struct {
	games  []Game
	byCode map[string]*Game
}

type registryFile struct {
	Games []Game `yaml:"games"`
}

// Load parses the embedded games table.
func Load() (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(gamesYAML, &file); err != nil {
		return nil, eris.Wrap(err, "source: parse games.yaml")
	}
	return NewRegistry(file.Games)
}

// NewRegistry builds a registry from an explicit game table.
func NewRegistry(games []Game) (*Registry, error) {
	if len(games) == 0 {
		return nil, eris.New("source: registry declares no games")
	}

	reg := &Registry{
		games:  games,
		byCode: make(map[string]*Game, len(games)),
	}
	for i := range reg.games {
		g := &reg.games[i]
		if len(g.Sources) == 0 {
			return nil, eris.Errorf("source: game %s declares no sources", g.Code)
		}
		for j := range g.Sources {
			g.Sources[j].Game = g.Code
		}
		reg.byCode[strings.ToUpper(g.Code)] = g
	}
	return reg, nil
}

// Game returns the game with the given code (case-insensitive).
func (r *Registry) Game(code string) (*Game, bool) {
	g, ok := r.byCode[strings.ToUpper(code)]
	return g, ok
}

// Games returns all games in declared order.
func (r *Registry) Games() []Game {
	return r.games
}

// DetectGame scans free text for game keywords and returns the first match.
// Falls back to the first declared game when nothing matches. Keywords of
// three characters or fewer must match a whole word so that "gi" does not
// fire inside ordinary prose.
func (r *Registry) DetectGame(text string) *Game {
	normalized := textnorm.Normalize(text)
	words := strings.Fields(normalized)
	for i := range r.games {
		g := &r.games[i]
		for _, kw := range g.Keywords {
			kw = strings.ToLower(kw)
			if len(kw) <= 3 {
				for _, w := range words {
					if w == kw {
						return g
					}
				}
				continue
			}
			if strings.Contains(normalized, kw) {
				return g
			}
		}
	}
	return &r.games[0]
}
