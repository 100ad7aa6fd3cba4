package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies calculation failures
type ErrorKind string

// Error kinds for the calculation failure scenarios
const (
	ErrInvalidInput      ErrorKind = "INVALID_INPUT"
	ErrOutOfRange        ErrorKind = "OUT_OF_RANGE"
	ErrInsufficientData  ErrorKind = "INSUFFICIENT_DATA"
	ErrDivisionByZero    ErrorKind = "DIVISION_BY_ZERO"
	ErrNumericDegeneracy ErrorKind = "NUMERIC_DEGENERACY"
)

// CalcError reports a failed calculation together with the offending value.
type CalcError struct {
	Kind    ErrorKind   `json:"kind"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *CalcError) Error() string {
	return fmt.Sprintf("%s: field '%s': %s (value: %v)", e.Kind, e.Field, e.Message, e.Value)
}

// NewCalcError creates a new CalcError
func NewCalcError(kind ErrorKind, field, message string, value interface{}) *CalcError {
	return &CalcError{
		Kind:    kind,
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewInvalidInput creates an INVALID_INPUT error
func NewInvalidInput(field, message string, value interface{}) *CalcError {
	return NewCalcError(ErrInvalidInput, field, message, value)
}

// NewOutOfRange creates an OUT_OF_RANGE error
func NewOutOfRange(field, message string, value interface{}) *CalcError {
	return NewCalcError(ErrOutOfRange, field, message, value)
}

// KindOf extracts the kind of a CalcError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// IsKind reports whether err wraps a CalcError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
