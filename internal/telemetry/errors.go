// errors.go - Structured error taxonomy for the telemetry client
package telemetry

import (
	"fmt"
	"time"
)

// ValidationError reports a request rejected locally, before any network
// round-trip.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s is required", e.Field)
}

// NewValidationError creates a validation error for a missing field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// TimeoutError reports an HTTP call whose deadline elapsed before a
// response arrived. The in-flight request is cancelled; callers can apply
// different backoff to timeouts than to hard transport failures.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %v", e.After)
}

// TransportError reports a network failure or a non-success HTTP status.
type TransportError struct {
	Status  int // 0 when the request never reached the server
	Message string
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("request failed with status code %d: %s", e.Status, e.Message)
	}
	return "network error or failed request: " + e.Message
}
