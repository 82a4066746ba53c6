// Package apperr defines the sentinel errors services return and handlers
// translate into HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyLinked = fmt.Errorf("already reconciled: %w", ErrConflict)
	ErrNotLinked     = fmt.Errorf("not reconciled: %w", ErrConflict)
)

// Invalid wraps ErrInvalidInput with a message for the client.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
