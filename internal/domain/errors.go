package domain

import (
	"errors"
	"fmt"
)

// Per-record rejection causes. Normalize wraps them in a *RejectionError.
var (
	ErrDisallowedType     = errors.New("disallowed disaster type")
	ErrUnresolvedLocation = errors.New("unresolved location")
	ErrInvalidStartDate   = errors.New("invalid start date")
	ErrDuplicateID        = errors.New("duplicate event id")
)

// RejectionError describes why one record was dropped. It is never a
// batch-level failure.
type RejectionError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// Rejection converts the error into the serializable batch summary form.
func (e *RejectionError) Rejection() Rejection {
	return Rejection{Index: e.Index, Field: e.Field, Reason: e.Reason}
}

// ReasonLabel is a short, bounded label for metrics.
func (e *RejectionError) ReasonLabel() string {
	switch {
	case errors.Is(e.Err, ErrDisallowedType):
		return "disallowed_type"
	case errors.Is(e.Err, ErrUnresolvedLocation):
		return "unresolved_location"
	case errors.Is(e.Err, ErrInvalidStartDate):
		return "invalid_start_date"
	case errors.Is(e.Err, ErrDuplicateID):
		return "duplicate_id"
	default:
		return "other"
	}
}

// NewRejectionError builds a RejectionError for the record at index.
func NewRejectionError(index int, field string, cause error, reason string) *RejectionError {
	return &RejectionError{Index: index, Field: field, Reason: reason, Err: cause}
}
