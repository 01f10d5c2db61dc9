package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrMissingInput is returned when a required source table is absent
	// or unreadable. It propagates unchanged to the caller; the caller
	// uses it to surface setup instructions, not to retry.
	ErrMissingInput = errors.New("missing input table")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
