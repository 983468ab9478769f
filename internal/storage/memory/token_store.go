package memory

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/storage"
)

// slotKey addresses one store slot.
type slotKey struct {
	chainID uint64
	id      domain.TokenID
}

// TokenStore is an unbounded in-memory implementation of storage.TokenStore.
// Each token is indexed twice, under its address and under its symbol, and
// both slots point at the same *domain.Token.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[slotKey]*domain.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[slotKey]*domain.Token),
	}
}

// Get returns the token stored under the slot.
func (s *TokenStore) Get(chainID uint64, id domain.TokenID) (*domain.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[slotKey{chainID: chainID, id: id}]
	return token, ok
}

// Insert writes the token under its address and symbol slots. Later inserts
// overwrite earlier ones; a nil token is ignored.
func (s *TokenStore) Insert(chainID uint64, token *domain.Token) {
	if token == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[slotKey{chainID: chainID, id: domain.AddressID(token.Address)}] = token
	s.tokens[slotKey{chainID: chainID, id: domain.SymbolID(token.Symbol)}] = token
}

// Contains reports whether the slot is populated.
func (s *TokenStore) Contains(chainID uint64, id domain.TokenID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[slotKey{chainID: chainID, id: id}]
	return ok
}

// Symbols returns the symbol keys, optionally restricted to one chain.
func (s *TokenStore) Symbols(chainID *uint64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var symbols []string
	for key := range s.tokens {
		if chainID != nil && key.chainID != *chainID {
			continue
		}
		if symbol, ok := key.id.Symbol(); ok {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

// Addresses returns the address keys, optionally restricted to one chain.
func (s *TokenStore) Addresses(chainID *uint64) []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var addresses []common.Address
	for key := range s.tokens {
		if chainID != nil && key.chainID != *chainID {
			continue
		}
		if addr, ok := key.id.Address(); ok {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

// Len returns the number of populated slots.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tokens)
}

var _ storage.TokenStore = (*TokenStore)(nil)
