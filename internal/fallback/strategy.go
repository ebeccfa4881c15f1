package fallback

import "errors"

// ErrDisabled is returned by the no-op strategy when a lesson needs manual
// recovery but the operator has not enabled it.
var ErrDisabled = errors.New("manual fallback is disabled")

// Strategy recovers a lesson whose video could not be fetched over the API.
// Fetch runs with the browser already on the lesson page and must leave the
// final file at dest, or queue it for placement during Finalize.
type Strategy interface {
	// Fetch attempts a manual recovery for the current lesson page.
	Fetch(dest string) error
	// Finalize runs once at the end of a session, after the browser has
	// had time to flush in-flight downloads.
	Finalize() error
}

// Noop refuses every recovery attempt. Used when manual fallback is off.
type Noop struct{}

func (Noop) Fetch(string) error { return ErrDisabled }
func (Noop) Finalize() error    { return nil }
