package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidThreshold is returned for a threshold that is not a positive number.
	ErrInvalidThreshold = errors.New("threshold must be > 0")

	// ErrInvalidLongConfig is returned for a long configuration other than 0 or 1.
	ErrInvalidLongConfig = errors.New("long config must be 0 or 1")
)

// InsufficientDataError signals a precondition violation: the table handed to a
// stage does not have enough rows to compute anything meaningful.
type InsufficientDataError struct {
	Stage string
	Rows  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: %d rows, need at least %d", e.Stage, e.Rows, e.Need)
}
