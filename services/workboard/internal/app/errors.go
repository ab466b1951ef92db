package app

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the parent of every missing-entity error.
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrPartNotFound    = fmt.Errorf("part %w", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)

	ErrCapacityExceeded = errors.New("user capacity exceeded")
	ErrInvalidStatus    = errors.New("invalid status")
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
