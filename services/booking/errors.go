package booking

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRequest marks malformed client input. Not retryable.
	ErrInvalidRequest = errors.New("invalid booking request")
	// ErrUnknownSessionType means the session type has no configured profile.
	ErrUnknownSessionType = errors.New("unknown session type")
	// ErrStoreUnavailable means the calendar store could not be reached in time.
	// Callers may retry with backoff; it never means "no availability".
	ErrStoreUnavailable = errors.New("calendar store unavailable")
	// ErrSlotNoLongerAvailable means another booking won the slot first.
	ErrSlotNoLongerAvailable = errors.New("slot no longer available")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBlockNotFound         = errors.New("block not found")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
)

// FieldError names one offending field of a booking request.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every invalid field of a rejected request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return ErrInvalidRequest.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}
