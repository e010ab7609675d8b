// Package apperr defines the error taxonomy shared by the save pipeline and
// the sync coordinator. Each class drives different recovery behavior, so
// callers branch with errors.As rather than string matching.
package apperr

import (
	"fmt"
	"strings"

	"taxtrack/internal/model"
)

// ValidationError is a local, pre-network failure: missing required fields,
// malformed numbers or a permission mismatch. It is never sent to the server
// and names every offending field so the message is actionable.
type ValidationError struct {
	Key        model.RecordKey
	Obligation model.Obligation
	Fields     []string
	Message    string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// NewValidation builds a ValidationError for one obligation of one record.
func NewValidation(key model.RecordKey, o model.Obligation, message string, fields ...string) *ValidationError {
	return &ValidationError{Key: key, Obligation: o, Message: message, Fields: fields}
}

// NetworkError means the transport was unreachable. Write paths surface it
// directly; read/refetch paths may retry once with backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AmbiguousServerError is a write failure (typically a 5xx) that may still
// have committed server-side. The coordinator must re-fetch the record once
// to establish ground truth before reporting it.
type AmbiguousServerError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *AmbiguousServerError) Error() string {
	return fmt.Sprintf("ambiguous server failure during %s (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *AmbiguousServerError) Unwrap() error { return e.Err }

// RateLimitError is a 429. Never retried; the current refetch group is
// skipped until the next explicit trigger.
type RateLimitError struct {
	Op string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited during %s", e.Op)
}
