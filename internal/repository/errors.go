package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// It wraps the driver error so transient failures surface unchanged
	// instead of being retried inside the core.
	ErrUnavailable = errors.New("store unavailable")
)
