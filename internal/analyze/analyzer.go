// Package analyze turns extracted build text into a structured record using
// the Anthropic API. The pipeline only sees the Analyzer interface, so tests
// substitute a deterministic stub.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/config"
	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/pkg/anthropic"
)

// Request carries everything the analyzer needs for one extraction.
type Request struct {
	Game      string
	Character string
	Text      string
	Schema    model.FieldSchema
	TeamSize  int
	Locale    string
}

// Analyzer fills a game-specific field schema from free text.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (model.BuildRecord, error)
}

// ClaudeAnalyzer implements Analyzer on the Anthropic messages API.
type ClaudeAnalyzer struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
}

// NewClaudeAnalyzer builds an analyzer from configuration.
func NewClaudeAnalyzer(client anthropic.Client, cfg config.AnthropicConfig) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{client: client, cfg: cfg}
}

// gameGlossaries keeps the model oriented in each game's vocabulary; the
// source pages mix equipment nomenclature freely.
var gameGlossaries = map[string]string{
	"HSR": `KEY HSR TERMS:
- Light Cone (weapon) - Relics (4-piece set)
- Planar Ornaments (2-piece set)
- Distinctive stats: Effect RES, Effect Hit Rate, Break Effect, Energy Regeneration Rate.`,
	"ZZZ": `KEY ZZZ TERMS:
- W-Engine (weapon) - Drive Discs (4-piece set)
- Sub/Core Drives (2-piece set)
- Distinctive stats: Impact, Energy Regen, Anomaly Proficiency, Attribute DMG.`,
	"GI": `KEY GI TERMS:
- Weapon - Artifacts (4-piece or mixed 2-piece sets)
- Variable main-stat pieces: Sands, Goblet, Circlet.
- Distinctive stats: Elemental Mastery, Energy Recharge.`,
}

// unitNouns names what a team is made of per game.
var unitNouns = map[string]string{
	"HSR": "characters",
	"ZZZ": "agents",
	"GI":  "characters",
}

var localeNames = map[string]string{
	"es": "SPANISH",
	"en": "ENGLISH",
	"jp": "JAPANESE",
	"cn": "CHINESE",
	"fr": "FRENCH",
	"kr": "KOREAN",
}

// Analyze prompts the model with the extracted text and parses its JSON
// answer into a build record. A response that is not valid JSON is an error;
// viability of the parsed record is the caller's judgment.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, req Request) (model.BuildRecord, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    "You are a videogame data-collection agent. You respond only with valid JSON.",
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyze: create message")
	}
	resp.Usage.LogCost(a.cfg.Model, "analyze")

	record, err := parseRecord(resp.Text())
	if err != nil {
		return nil, err
	}

	zap.L().Info("analyze: record produced",
		zap.String("game", req.Game),
		zap.String("character", req.Character),
		zap.Int("fields", len(record)),
	)
	return record, nil
}

func buildPrompt(req Request) (string, error) {
	glossary := gameGlossaries[req.Game]
	noun := unitNouns[req.Game]
	if noun == "" {
		noun = "characters"
	}

	locale := strings.ToLower(req.Locale)
	localeName, ok := localeNames[locale]
	if !ok {
		locale, localeName = "en", "ENGLISH"
	}

	schemaJSON, err := json.MarshalIndent(req.Schema, "", "    ")
	if err != nil {
		return "", eris.Wrap(err, "analyze: marshal schema")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following text from a %s build page for '%s' and extract the recommendations.\n\n", req.Game, req.Character)
	if glossary != "" {
		b.WriteString(glossary)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, `Find the 3 most relevant and varied team compositions that include '%s'.
Each entry in 'team_recommendations' must be a single string containing the names of the %d %s separated by commas, translated to %s.
If fewer than 3 clear compositions exist, use the string "Team Not Found" for the missing entries.

IMPORTANT: if the source provides no final stats, fill the 'final_stats_targets' dictionary with empty strings ("").

LOCALIZATION (CRITICAL): translate and localize every item name (sets, weapons/cones/engines), stat, and %s name to %s (%s) in the output JSON.

OUTPUT FORMAT: respond ONLY with a valid JSON object, no extra text, explanations, or code.

JSON SCHEMA (fill the values, keep the keys):
%s

TEXT TO ANALYZE:
---
%s
---
`, req.Character, req.TeamSize, noun, localeName, strings.TrimSuffix(noun, "s"), localeName, locale, schemaJSON, req.Text)

	return b.String(), nil
}

// parseRecord strips an optional fenced code block and unmarshals the JSON
// object.
func parseRecord(raw string) (model.BuildRecord, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSpace(strings.Trim(text, "`"))
	}

	var record model.BuildRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, eris.Wrap(err, "analyze: parse model output")
	}
	return record, nil
}
