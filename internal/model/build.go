// Package model holds the shared data types for the build research pipeline.
package model

// Metadata keys every build record carries regardless of game schema.
const (
	KeyCharacterName   = "character_name"
	KeyGame            = "game"
	KeySource          = "source"
	KeyBuildName       = "build_name"
	KeyMainStats       = "main_stats_recommendations"
	KeySelectionReason = "selection_reason"
)

// identityKeys are excluded from the viability check: a record whose only
// populated fields are identity/metadata carries no actual build content.
var identityKeys = map[string]struct{}{
	KeyCharacterName:   {},
	KeyGame:            {},
	KeySource:          {},
	KeyBuildName:       {},
	KeyMainStats:       {},
	KeySelectionReason: {},
}

// FieldSchema is the per-game mapping template the analyzer must fill.
// Supplied by the source registry and passed through opaquely.
type FieldSchema map[string]any

// Clone returns a shallow copy so callers can hand the schema to the analyzer
// without sharing the registry's template.
func (s FieldSchema) Clone() FieldSchema {
	out := make(FieldSchema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// BuildRecord is an analyzer output merged with request metadata. The shape is
// game-specific, so it stays a dynamic mapping rather than a struct.
type BuildRecord map[string]any

// Viable reports whether at least one field other than the identity/metadata
// set is non-empty. An all-empty record is the analyzer's "found nothing"
// response and must never be accepted or persisted.
func (r BuildRecord) Viable() bool {
	for key, val := range r {
		if _, skip := identityKeys[key]; skip {
			continue
		}
		if !isEmptyValue(val) {
			return true
		}
	}
	return false
}

// SetMetadata stamps the record with its request identity and the reason this
// source was selected.
func (r BuildRecord) SetMetadata(game, source, character, reason string) {
	r[KeyGame] = game
	r[KeySource] = source
	r[KeyCharacterName] = character
	r[KeySelectionReason] = reason
}

// Filter returns a copy containing only the requested keys that are present.
func (r BuildRecord) Filter(keys []string) BuildRecord {
	out := make(BuildRecord, len(keys))
	for _, k := range keys {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

// isEmptyValue treats nil, empty strings, and empty/all-empty collections as
// empty. A map whose values are all empty (an untouched stats template) does
// not make a record viable.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		for _, inner := range val {
			if !isEmptyValue(inner) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
