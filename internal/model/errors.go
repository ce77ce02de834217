package model

import "fmt"

// Machine-readable validation reasons surfaced to the caller.
const (
	CodeEmptyStops        = "EMPTY_STOPS"
	CodeEmptyVehicles     = "EMPTY_VEHICLES"
	CodeInvalidCoordinate = "INVALID_COORDINATE"
	CodeNonPositiveCap    = "NON_POSITIVE_CAPACITY"
	CodeInvalidTimeWindow = "INVALID_TIME_WINDOW"
	CodeNegativeDemand    = "NEGATIVE_DEMAND"
)

// ValidationError rejects malformed input before any search starts.
// It is the only error class that aborts an optimize call.
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func NewValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}
