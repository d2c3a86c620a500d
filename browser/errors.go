package browser

import "errors"

var (
	// ErrNotConnected is returned when no browser session is active.
	ErrNotConnected = errors.New("browser: not connected")

	// ErrElementNotFound is returned when a selector matches nothing.
	ErrElementNotFound = errors.New("browser: element not found")

	// ErrNavigationFailed is returned when a page load fails.
	ErrNavigationFailed = errors.New("browser: navigation failed")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("browser: operation timed out")
)
