package storage

import "errors"

// Storage errors for keyed stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record under a key that already exists.
	// Per-event records are append-once and never overwritten.
	ErrDuplicateKey = errors.New("duplicate key: record is append-once")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
