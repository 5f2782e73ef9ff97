package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a sink failure for the pipeline's propagation policy.
type ErrorKind string

const (
	// KindAuth means the credentials were rejected. No later write in the
	// run can succeed, so callers must abort.
	KindAuth ErrorKind = "auth"
	// KindRateLimited means the API asked us to slow down. The write is
	// retried with backoff before being reported as failed.
	KindRateLimited ErrorKind = "rate_limited"
	// KindValidation means this record was rejected; later records may
	// still succeed.
	KindValidation ErrorKind = "validation"
	// KindTransport covers network failures and unexpected statuses.
	KindTransport ErrorKind = "transport"
)

// SinkError describes a failed sink operation.
type SinkError struct {
	Kind    ErrorKind
	Status  int
	Op      string
	Message string
	Err     error
}

func (e *SinkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notion %s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("notion %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("notion %s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// statusError builds a SinkError from a non-2xx API response.
func statusError(op string, status int, message string) *SinkError {
	kind := KindTransport
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	}
	return &SinkError{Kind: kind, Status: status, Op: op, Message: message}
}

func transportError(op string, err error) *SinkError {
	return &SinkError{Kind: KindTransport, Op: op, Err: err}
}

// KindOf extracts the error kind, defaulting to transport for foreign
// errors.
func KindOf(err error) ErrorKind {
	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Kind
	}
	return KindTransport
}
