package apperrors

import "fmt"

// ErrAuth is returned when the signed-in marker never appears after
// submitting credentials. It is fatal to the run; the caller must close the
// browser session.
type ErrAuth struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrAuth) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrAuth) Is(target error) bool {
	_, ok := target.(*ErrAuth)
	return ok
}

// NewAuthError creates a new ErrAuth.
func NewAuthError(reason string) *ErrAuth {
	return &ErrAuth{Reason: reason}
}

// ErrScrapeTimeout is returned when an expected DOM element never rendered
// within the bounded wait.
type ErrScrapeTimeout struct {
	Selector string
	URL      string
}

// Error implements the error interface.
func (e *ErrScrapeTimeout) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("timed out waiting for %q on %s", e.Selector, e.URL)
	}
	return fmt.Sprintf("timed out waiting for %q", e.Selector)
}

// Is allows for error checking with errors.Is().
func (e *ErrScrapeTimeout) Is(target error) bool {
	_, ok := target.(*ErrScrapeTimeout)
	return ok
}

// NewScrapeTimeoutError creates a new ErrScrapeTimeout.
func NewScrapeTimeoutError(selector, url string) *ErrScrapeTimeout {
	return &ErrScrapeTimeout{Selector: selector, URL: url}
}

// ErrAPI is returned when the video-asset API responds with a non-2xx status
// or a body that cannot be interpreted. It triggers the manual fallback and
// is never fatal to the run.
type ErrAPI struct {
	URL    string
	Status int
	Reason string
}

// Error implements the error interface.
func (e *ErrAPI) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("asset API returned status %d for %s", e.Status, e.URL)
	}
	return fmt.Sprintf("asset API request to %s failed: %s", e.URL, e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrAPI) Is(target error) bool {
	_, ok := target.(*ErrAPI)
	return ok
}

// NewAPIStatusError creates an ErrAPI for an unexpected HTTP status.
func NewAPIStatusError(url string, status int) *ErrAPI {
	return &ErrAPI{URL: url, Status: status}
}

// NewAPIError creates an ErrAPI for a malformed or unusable response.
func NewAPIError(url, reason string) *ErrAPI {
	return &ErrAPI{URL: url, Reason: reason}
}
