package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotReady is returned when an operation is attempted before the
	// backend is connected or after it was closed.
	ErrNotReady = errors.New("store not ready")
)

// =============================================================================
// Structured Error Type
// =============================================================================

// StoreError wraps storage operation errors with additional context. It
// supports errors.Unwrap for sentinel checks with errors.Is().
type StoreError struct {
	// Op is the operation that failed (e.g., "Put", "ListAll").
	Op string

	// Backend identifies the backend ("file" or "mongo").
	Backend string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.Op, e.Backend, e.Err)
}

// Unwrap returns the underlying error for errors.Is() and errors.As().
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotReady returns true if the error indicates the store was not ready.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
