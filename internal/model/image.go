package model

// ImageCandidate is a single image discovered on a seed page, before scoring.
// URL is canonical (query string already stripped); FoundOn is the page the
// candidate was observed on, used as the Referer for hot-link retries.
type ImageCandidate struct {
	URL        string `json:"url"`
	AltText    string `json:"alt_text,omitempty"`
	ParentText string `json:"parent_text,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Caption    string `json:"caption,omitempty"`
	FoundOn    string `json:"found_on,omitempty"`
}

// ScoredCandidate is an ImageCandidate with its relevance score and the HTTP
// status observed by the reachability check (0 when the check itself failed).
type ScoredCandidate struct {
	ImageCandidate
	Score      float64 `json:"score"`
	HTTPStatus int     `json:"http_status"`
}
