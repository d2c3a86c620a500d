package funnel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStageDetectionTimeout means no configured stage was recognized
	// within its bound. Fatal to the run.
	ErrStageDetectionTimeout = errors.New("funnel: no stage detected within timeout")

	// ErrElementNotFound means an interaction target does not exist on the
	// current page.
	ErrElementNotFound = errors.New("funnel: element not found")

	// ErrElementNotInteractable means the target exists but is hidden or
	// disabled.
	ErrElementNotInteractable = errors.New("funnel: element not interactable")

	// ErrUnknownPageLayout means none of the expected page markers were
	// found; the target site has likely changed.
	ErrUnknownPageLayout = errors.New("funnel: unknown page layout")
)

// ValidationError reports malformed caller input. It is surfaced before any
// browser interaction happens.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// AmbiguousOptionError means a dropdown selection matched nothing, neither
// exactly nor by substring. It carries the full option list for diagnosis.
type AmbiguousOptionError struct {
	Selector string
	Wanted   string
	Options  []string
}

func (e *AmbiguousOptionError) Error() string {
	return fmt.Sprintf("no option matching %q in %s; available options: %s",
		e.Wanted, e.Selector, strings.Join(e.Options, ", "))
}

// ClickError aggregates every attempted click strategy's failure reason.
// It is only returned after all configured strategies have been tried.
type ClickError struct {
	Selector string
	Attempts []ClickAttempt
}

// ClickAttempt records one strategy's failure.
type ClickAttempt struct {
	Strategy string
	Err      error
}

func (e *ClickError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("all click strategies failed for %s (%s)", e.Selector, strings.Join(parts, "; "))
}
