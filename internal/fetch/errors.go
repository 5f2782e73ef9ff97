// Package fetch retrieves listing and detail pages over HTTP or a headless
// browser session, with Korean encoding recovery.
package fetch

import "fmt"

// Reason classifies why a fetch failed.
type Reason string

// Fetch failure reasons.
const (
	// ReasonTimeout indicates the request or page load exceeded its deadline.
	ReasonTimeout Reason = "timeout"
	// ReasonNetwork indicates a transport-level failure.
	ReasonNetwork Reason = "network"
	// ReasonBadStatus indicates a non-success HTTP status.
	ReasonBadStatus Reason = "bad_status"
	// ReasonBlocked indicates the site refused the request.
	ReasonBlocked Reason = "blocked"
	// ReasonDialog indicates a JavaScript dialog interrupted a browser fetch.
	ReasonDialog Reason = "interactive_dialog"
	// ReasonMissingMarker indicates an expected content marker was absent.
	ReasonMissingMarker Reason = "missing_marker"
)

// Error is a fetch failure with its classified reason. During enrichment it
// degrades the item rather than aborting the run.
type Error struct {
	URL    string
	Reason Reason
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", e.URL, e.Reason)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified fetch error.
func NewError(url string, reason Reason, err error) *Error {
	return &Error{URL: url, Reason: reason, Err: err}
}
