package domain

import (
	"fmt"
	"testing"
)

func TestCalcError(t *testing.T) {
	tests := []struct {
		name    string
		kind    ErrorKind
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "Invalid median",
			kind:    ErrInvalidInput,
			field:   "population_median",
			message: "must be positive",
			value:   0.0,
		},
		{
			name:    "Point time out of range",
			kind:    ErrOutOfRange,
			field:   "point_time",
			message: "outside series",
			value:   90.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCalcError(tt.kind, tt.field, tt.message, tt.value)

			if err.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, err.Kind)
			}

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}

			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := fmt.Sprintf("%s: field '%s': %s (value: %v)", tt.kind, tt.field, tt.message, tt.value)
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	base := NewOutOfRange("end_time", "after last sample", 75.0)
	wrapped := fmt.Errorf("record r-1: %w", fmt.Errorf("fixed time: %w", base))

	if !IsKind(wrapped, ErrOutOfRange) {
		t.Errorf("Expected wrapped error to be %s", ErrOutOfRange)
	}
	if IsKind(wrapped, ErrInvalidInput) {
		t.Errorf("Wrapped error must not match %s", ErrInvalidInput)
	}
	if IsKind(fmt.Errorf("plain"), ErrOutOfRange) {
		t.Errorf("Plain error must not match any kind")
	}

	kind, ok := KindOf(wrapped)
	if !ok || kind != ErrOutOfRange {
		t.Errorf("Expected KindOf to return %s, got %s (ok=%v)", ErrOutOfRange, kind, ok)
	}
}

func TestErrorKindConstants(t *testing.T) {
	expected := map[ErrorKind]string{
		ErrInvalidInput:      "INVALID_INPUT",
		ErrOutOfRange:        "OUT_OF_RANGE",
		ErrInsufficientData:  "INSUFFICIENT_DATA",
		ErrDivisionByZero:    "DIVISION_BY_ZERO",
		ErrNumericDegeneracy: "NUMERIC_DEGENERACY",
	}

	for kind, want := range expected {
		if string(kind) != want {
			t.Errorf("Expected %s, got %s", want, string(kind))
		}
	}
}
