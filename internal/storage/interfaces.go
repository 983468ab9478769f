package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"evm-token-cache/internal/domain"
)

// TokenStore is an in-memory cache of token metadata keyed by
// (chain ID, token identifier).
//
// Every token occupies two slots: one under its address and one under its
// symbol. Store operations never perform I/O and never fail; a miss is
// reported through the boolean result. Implementations must be safe for
// concurrent use; locking is per operation, so a Get followed by an Insert
// is not atomic.
type TokenStore interface {
	// Get returns the token stored under the given slot.
	Get(chainID uint64, id domain.TokenID) (*domain.Token, bool)

	// Insert stores the token under both its address and its symbol slot.
	// Existing slots are overwritten.
	Insert(chainID uint64, token *domain.Token)

	// Contains reports whether the slot is populated.
	Contains(chainID uint64, id domain.TokenID) bool

	// Symbols returns every symbol key, restricted to one chain when chainID
	// is non-nil. Order is unspecified.
	Symbols(chainID *uint64) []string

	// Addresses returns every address key, restricted to one chain when
	// chainID is non-nil. Order is unspecified.
	Addresses(chainID *uint64) []common.Address

	// Len returns the number of populated slots.
	Len() int
}

// Chain returns a chain filter for Symbols and Addresses.
func Chain(chainID uint64) *uint64 {
	return &chainID
}

// AllChains is the filter that matches every chain.
var AllChains *uint64
