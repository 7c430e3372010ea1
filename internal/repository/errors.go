package repository

import "errors"

var (
	// ErrVersionConflict is returned when a compare-and-swap write finds the
	// row changed since it was read.
	ErrVersionConflict = errors.New("record was modified concurrently")

	// ErrAlreadySet is returned when a write-once slot is already filled.
	ErrAlreadySet = errors.New("value already set")
)
