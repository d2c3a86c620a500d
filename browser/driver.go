// Package browser provides page automation via the Chrome DevTools Protocol.
// The funnel engine talks to the Driver interface only; the chromedp-backed
// implementation lives in cdp.go so tests can substitute a synchronous fake.
package browser

import (
	"context"
	"time"
)

// DefaultOpTimeout bounds a single driver operation when the caller's
// context carries no deadline of its own.
const DefaultOpTimeout = 30 * time.Second

// SelectOption is one entry of a <select> control's option list.
type SelectOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Driver is the set of page operations the funnel engine needs. Every method
// is a named suspension point: it takes a context, does exactly one thing
// against the live page, and returns.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)

	// Element state probes
	Exists(ctx context.Context, selector string) (bool, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Enabled(ctx context.Context, selector string) (bool, error)
	InViewport(ctx context.Context, selector string) (bool, error)
	ScrollIntoView(ctx context.Context, selector string) error

	// Text fields
	Value(ctx context.Context, selector string) (string, error)
	SetValue(ctx context.Context, selector, value string) error
	ClearValue(ctx context.Context, selector string) error
	TypeText(ctx context.Context, selector, text string, perKeyDelay time.Duration) error

	// Select controls
	Options(ctx context.Context, selector string) ([]SelectOption, error)
	SelectByValue(ctx context.Context, selector, value string) error

	// Checkboxes / radios
	SetChecked(ctx context.Context, selector string, checked bool) error
	Checked(ctx context.Context, selector string) (bool, error)

	// Click strategies, in the order the engine tries them
	Click(ctx context.Context, selector string) error
	ClickScript(ctx context.Context, selector string) error
	ClickAt(ctx context.Context, selector string) error
	Submit(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error

	// Page content
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)
	PageText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	Close(ctx context.Context) error
}
