package domain

import (
	"errors"
	"fmt"
)

// Token retrieval errors.
var (
	// ErrNotInStore is returned when a symbol identifier is absent from the
	// store. Symbols cannot be resolved over the network.
	ErrNotInStore = errors.New("token is not present in the store")

	// ErrTransport is returned when the underlying contract call failed.
	ErrTransport = errors.New("failed to query token")

	// ErrDecode is returned when contract return data could not be decoded.
	ErrDecode = errors.New("failed to decode token")
)

// TokenError tags a retrieval failure with the identifier that caused it.
type TokenError struct {
	ID  TokenID
	Err error
}

// NewTokenError wraps err with the identifier that triggered it.
func NewTokenError(id TokenID, err error) *TokenError {
	return &TokenError{ID: id, Err: err}
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %s: %v", e.ID, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}
