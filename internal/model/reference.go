package model

// ResolvedReference is a concrete character page located on a source. A nil
// *ResolvedReference signals "not found", which is an expected outcome, not
// an error.
type ResolvedReference struct {
	URL        string `json:"url"`
	SourceCode string `json:"source_code"`
}

// MinUsableTextChars is the extraction usability threshold: anything shorter
// is a consent wall, a stub page, or noise.
const MinUsableTextChars = 500

// ExtractionResult holds the text pulled from a rendered character page.
type ExtractionResult struct {
	Text   string `json:"text"`
	Usable bool   `json:"usable"`
}
