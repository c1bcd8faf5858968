package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidQuery signals a query rejected before any store is contacted.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrTimeout signals that the federated search missed its deadline.
	ErrTimeout = errors.New("search timed out")
	// ErrStoreFailure wraps a single backend store failure. It is recorded in
	// the report and never returned from a federated search.
	ErrStoreFailure = errors.New("store failure")
	// ErrUnknownDriver signals an unsupported store driver in configuration.
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrStoreClosed signals use of a store after Close.
	ErrStoreClosed = errors.New("store closed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// TimeoutError wraps ErrTimeout with the deadline that was exceeded.
type TimeoutError struct {
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s after %s", ErrTimeout.Error(), e.Deadline)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// NewTimeout creates a timeout error for the given deadline.
func NewTimeout(deadline time.Duration) error {
	return &TimeoutError{Deadline: deadline}
}
