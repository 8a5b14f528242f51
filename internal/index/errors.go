package index

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage marks every failure returned by a Store. The failed
	// operation was rolled back and earlier commits are untouched.
	ErrStorage = errors.New("index storage failure")

	// ErrEmptyKey is returned for an empty URL or word.
	ErrEmptyKey = errors.New("empty key")

	// ErrInvalidCount is returned when a frequency count is below 1.
	ErrInvalidCount = errors.New("count must be positive")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown index driver")
)

// storageError wraps err as a failure of op.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
