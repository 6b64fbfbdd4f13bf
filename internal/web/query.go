package web

import (
	"regexp"
	"strings"

	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/source"
)

// Query is the structured reading of a free-text chat message.
type Query struct {
	Game          *source.Game
	Character     string
	RequestedKeys []string
}

// stopWords are tokens that describe the request rather than name the
// character. Both English and Spanish, since the supported sources and their
// audiences mix the two.
var stopWords = regexp.MustCompile(`\b(best|mejor|need|necesito|i|with|con|del|de|para|for|honkai|star\s*rail|zenless|zone\s*zero|zzz|hsr|genshin|impact|gi|builds?|general|full|completa|complete|todo|everything|discos?|discs?|reliquias?|relics?|artefactos?|artifacts?|armas?|weapons?|engines?|w-engines?|conos?|cones?|light\s*cones?|stats|estadisticas?|objetivos?|targets?|final|substats|equipos?|teams?|composicion(es)?|compositions?|partners?|muestrame|show|quiero|want|la|el|los|las|un|una|y|o|and|or|the|a|dame|give|me|vida|hp|ataque|atk|defensa|def|probabilidad\s*critica|crit\s*rate|dano\s*critico|crit\s*dmg|maestria\s*elemental|elemental\s*mastery|recarga\s*de\s*energia|energy\s*recharge)\b`)

var nonNameChars = regexp.MustCompile(`[^\w\s-]`)

// keyTriggers maps schema keys to the query keywords that request them.
var keyTriggers = []struct {
	keywords []string
	keys     []string
}{
	{
		keywords: []string{"weapon", "arma", "engine", "cone", "cono"},
		keys:     []string{"weapon_recommendations"},
	},
	{
		keywords: []string{"relic", "reliquia", "artifact", "artefacto", "disc", "disco", "drive", "set", "ornament"},
		keys:     []string{"artifact_set_recommendations", "planetary_set_recommendations", "main_stats_recommendations"},
	},
	{
		keywords: []string{"stats", "estadistica", "target", "objetivo", "final", "substats", "crit", "mastery", "maestria", "recharge", "recarga"},
		keys:     []string{"final_stats_targets"},
	},
	{
		keywords: []string{"team", "equipo", "composition", "composicion", "partner"},
		keys:     []string{"team_recommendations"},
	},
}

var fullBuildWords = []string{"build", "general", "completa", "complete", "full", "todo", "everything"}

// identityKeys every response carries.
var baseKeys = []string{
	model.KeyCharacterName,
	model.KeyGame,
	model.KeyBuildName,
	model.KeySource,
	model.KeySelectionReason,
}

// ParseQuery detects the game, extracts the character name, and decides which
// record keys the user asked for. An empty character means the message named
// nobody recognizable.
func ParseQuery(reg *source.Registry, text string) Query {
	lowered := strings.ToLower(strings.TrimSpace(text))
	game := reg.DetectGame(lowered)

	// The character name is whatever survives removing request vocabulary.
	remainder := stopWords.ReplaceAllString(lowered, " ")
	remainder = nonNameChars.ReplaceAllString(remainder, "")
	character := strings.Join(strings.Fields(remainder), " ")
	if character == "" {
		// Last resort: the final word, unless it is request vocabulary itself.
		words := strings.Fields(lowered)
		if len(words) > 0 {
			last := nonNameChars.ReplaceAllString(words[len(words)-1], "")
			if last != "" && !stopWords.MatchString(" "+last+" ") {
				character = last
			}
		}
	}

	keys := append([]string{}, baseKeys...)
	for _, trigger := range keyTriggers {
		if containsAny(lowered, trigger.keywords) {
			for _, k := range trigger.keys {
				if _, ok := game.Schema[k]; ok {
					keys = append(keys, k)
				}
			}
		}
	}

	// Nothing specific requested, or an explicit full-build ask: return the
	// whole schema.
	if len(keys) <= len(baseKeys) || containsAny(lowered, fullBuildWords) {
		for k := range game.Schema {
			keys = append(keys, k)
		}
	}

	return Query{
		Game:          game,
		Character:     character,
		RequestedKeys: dedupe(keys),
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
