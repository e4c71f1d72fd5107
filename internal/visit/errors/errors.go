// Package errors defines the sentinel errors shared across the visit
// service. Callers match them with errors.Is after wrapping with %w.
package errors

import (
	"fmt"
)

var (
	ErrNotFound = fmt.Errorf("not found")
	// ErrInvalidTransition is returned when a lifecycle operation is
	// applied to a visit whose current status does not permit it,
	// including applying the same transition twice.
	ErrInvalidTransition = fmt.Errorf("invalid status transition")
	// ErrMissingVisitReference is returned when an approval carries no
	// resolvable visit identifier for the downstream check-in step.
	ErrMissingVisitReference = fmt.Errorf("missing visit reference")
	// ErrStoreUnavailable wraps transport failures from the record store;
	// the operation is safe to retry as-is.
	ErrStoreUnavailable = fmt.Errorf("record store unavailable")
	ErrInvalidInput     = fmt.Errorf("invalid input")
	// ErrNoData is returned by the report exporter when the filtered set
	// is empty; no file artifact is produced.
	ErrNoData = fmt.Errorf("no data")
)

// ValidationError reports per-field submission violations.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Unwrap lets errors.Is treat every ValidationError as ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
