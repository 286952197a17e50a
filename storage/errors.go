package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a run is not archived.
	ErrNotFound = errors.New("run not found")

	// ErrInvalidRunID is returned for keys that are not run ids.
	ErrInvalidRunID = errors.New("invalid run id")
)
