package storage

import "errors"

// Store operations never fail; only construction can.
var (
	// ErrInvalidInput is returned when a store is configured with invalid
	// parameters.
	ErrInvalidInput = errors.New("invalid input")
)
