package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes one malformed field of a fixture or outcome submission.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) hold for any InputError.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func inputErr(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
