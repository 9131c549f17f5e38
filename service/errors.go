package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks validation failures so handlers can map them to
// client errors instead of server errors.
var ErrInvalidInput = errors.New("invalid input")

// invalidf wraps a validation failure with ErrInvalidInput.
func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
