// Package ledger provides the pieces shared by both ledger API clients:
// the error taxonomy used to decide retry eligibility, and the
// next-link pagination loop.
package ledger

import (
	"errors"
	"fmt"
)

// TransportError represents a network failure, timeout, or 5xx response.
// Transport errors are retryable; retry policy belongs to the caller,
// never to the client itself.
type TransportError struct {
	Op     string // e.g. "up.transactions", "ynab.create"
	URL    string
	Status int // 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: server error (status %d) from %s", e.Op, e.Status, e.URL)
	}
	return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError represents a 4xx response or a payload the API rejected.
// Validation errors are never retried.
type ValidationError struct {
	Op     string
	Status int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: rejected (status %d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: rejected (status %d)", e.Op, e.Status)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
