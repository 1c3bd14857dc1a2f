package browser

import "errors"

var (
	// ErrStalled is returned by Run when no page load arrives in time.
	ErrStalled = errors.New("browser: no page load before stall timeout")
	// ErrClosed is returned by Run when the load feed ends.
	ErrClosed = errors.New("browser: page closed")
)
