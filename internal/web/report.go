package web

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/textnorm"
)

// gameNames maps game codes to display titles on the report page.
var gameNames = map[string]string{
	"HSR": "Honkai: Star Rail",
	"ZZZ": "Zenless Zone Zero",
	"GI":  "Genshin Impact",
}

// ReportWriter renders an accepted build plus its image gallery to a
// standalone HTML page under the reports directory.
type ReportWriter struct {
	dir  string
	tmpl *template.Template
}

// NewReportWriter prepares the output directory and parses the template.
func NewReportWriter(dir string) (*ReportWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "web: create reports dir %s", dir)
	}
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, eris.Wrap(err, "web: parse report template")
	}
	return &ReportWriter{dir: dir, tmpl: tmpl}, nil
}

type reportSection struct {
	Title string
	Items []string
}

type reportStats struct {
	Title string
	Rows  [][2]string
}

type reportData struct {
	Character   string
	GameName    string
	GeneratedAt string
	Reason      string
	Images      []string
	Sections    []reportSection
	Stats       []reportStats
}

// Write renders the report and returns the generated file name (relative to
// the reports directory).
func (w *ReportWriter) Write(record model.BuildRecord, images []model.ScoredCandidate, game, character string) (string, error) {
	data := reportData{
		Character:   character,
		GameName:    displayGame(game),
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
	}
	data.Reason, _ = record[model.KeySelectionReason].(string)
	for _, img := range images {
		data.Images = append(data.Images, img.URL)
	}

	sectionTitles := []struct{ key, title string }{
		{"weapon_recommendations", "Recommended Weapons"},
		{"artifact_set_recommendations", "Artifact Sets"},
		{"planetary_set_recommendations", "Planetary Ornaments"},
		{"team_recommendations", "Team Compositions"},
	}
	for _, s := range sectionTitles {
		if items := stringList(record[s.key]); len(items) > 0 {
			data.Sections = append(data.Sections, reportSection{Title: s.title, Items: items})
		}
	}

	statTitles := []struct{ key, title string }{
		{model.KeyMainStats, "Main Stats"},
		{"final_stats_targets", "Final Stat Targets"},
	}
	for _, s := range statTitles {
		if rows := statRows(record[s.key]); len(rows) > 0 {
			data.Stats = append(data.Stats, reportStats{Title: s.title, Rows: rows})
		}
	}

	name := fmt.Sprintf("report_%s_%s_%s.html",
		textnorm.Slug(game),
		textnorm.Slug(character),
		uuid.NewString(),
	)
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "web: create report %s", path)
	}
	defer f.Close()

	if err := w.tmpl.Execute(f, data); err != nil {
		return "", eris.Wrap(err, "web: render report")
	}

	zap.L().Info("web: report written",
		zap.String("path", path),
		zap.Int("images", len(data.Images)),
	)
	return name, nil
}

func displayGame(code string) string {
	if name, ok := gameNames[code]; ok {
		return name
	}
	return code
}

func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func statRows(v any) [][2]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][2]string
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			rows = append(rows, [2]string{k, s})
		}
	}
	return rows
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Character}} &middot; {{.GameName}} Build</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; background: #14151c; color: #e8e8ef; }
  header { padding: 2rem; background: linear-gradient(135deg, #23243a, #101118); }
  h1 { margin: 0 0 .25rem; text-transform: capitalize; }
  .meta { color: #9a9ab0; font-size: .9rem; }
  main { max-width: 960px; margin: 0 auto; padding: 1.5rem; }
  section { margin-bottom: 2rem; }
  h2 { border-bottom: 1px solid #33344a; padding-bottom: .4rem; }
  ul { padding-left: 1.2rem; }
  table { border-collapse: collapse; width: 100%; }
  td { padding: .35rem .6rem; border-bottom: 1px solid #26273a; }
  td:first-child { color: #9a9ab0; width: 40%; }
  .gallery { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: .75rem; }
  .gallery img { width: 100%; border-radius: 8px; object-fit: cover; aspect-ratio: 1; }
  .reason { font-style: italic; color: #9a9ab0; }
</style>
</head>
<body>
<header>
  <h1>{{.Character}}</h1>
  <div class="meta">{{.GameName}} &middot; generated {{.GeneratedAt}}</div>
</header>
<main>
{{if .Reason}}<p class="reason">{{.Reason}}</p>{{end}}
{{if .Images}}
<section>
  <h2>Gallery</h2>
  <div class="gallery">
  {{range .Images}}<img src="{{.}}" alt="{{$.Character}}" loading="lazy">{{end}}
  </div>
</section>
{{end}}
{{range .Sections}}
<section>
  <h2>{{.Title}}</h2>
  <ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
</section>
{{end}}
{{range .Stats}}
<section>
  <h2>{{.Title}}</h2>
  <table>{{range .Rows}}<tr><td>{{index . 0}}</td><td>{{index . 1}}</td></tr>{{end}}</table>
</section>
{{end}}
</main>
</body>
</html>
`
