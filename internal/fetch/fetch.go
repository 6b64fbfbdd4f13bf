// Package fetch renders pages with a headless browser and exposes the
// document accessors the resolution and image pipelines consume. Rendering is
// required because every supported site builds its character listings with
// JavaScript.
package fetch

import (
	"context"
)

// Anchor is a single link on a rendered page.
type Anchor struct {
	Href string
	Text string
}

// ImageElement is a DOM image with the text context used for relevance
// scoring: alt/title, the parent element's visible text, and the nearest
// figure caption.
type ImageElement struct {
	Src        string `json:"src"`
	Alt        string `json:"alt"`
	Title      string `json:"title"`
	ParentText string `json:"parent"`
	Caption    string `json:"caption"`
}

// Page is one rendered navigation result. NetworkImages holds the URLs of
// image resources observed over the network during the visit (query strings
// already stripped); it is populated only when image capture was requested.
type Page struct {
	URL           string
	HTML          string
	Images        []ImageElement
	NetworkImages []string
}

// Fetcher renders a URL and returns the resulting document. Implementations
// must release all per-navigation resources on every exit path and must never
// leave network listeners attached after returning.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...NavOption) (*Page, error)
}

type navOpts struct {
	waitSelector   string
	captureImages  bool
	scrollPasses   int
	dismissConsent bool
}

// NavOption customizes a single navigation.
type NavOption func(*navOpts)

// WithWaitSelector waits for the given selector to appear before reading the
// document, falling back to the settle delay if it never does.
func WithWaitSelector(sel string) NavOption {
	return func(o *navOpts) { o.waitSelector = sel }
}

// WithImageCapture records DOM images, forces lazy-loaded sources to
// materialize, and captures image resources observed on the network.
func WithImageCapture() NavOption {
	return func(o *navOpts) { o.captureImages = true }
}

// WithScroll simulates n scroll passes to trigger lazy loading further down
// the page.
func WithScroll(n int) NavOption {
	return func(o *navOpts) { o.scrollPasses = n }
}

// WithConsentDismiss clicks common cookie-consent accept buttons, best
// effort, before reading the document.
func WithConsentDismiss() NavOption {
	return func(o *navOpts) { o.dismissConsent = true }
}
