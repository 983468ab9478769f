package memory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/storage"
)

// addressKey identifies a token within the LRU: one entry per (chain, address).
type addressKey struct {
	chainID uint64
	address common.Address
}

// symbolKey identifies a symbol slot.
type symbolKey struct {
	chainID uint64
	symbol  string
}

// EvictFunc is called when a token leaves an LRUTokenStore because of
// capacity pressure. It runs with the store lock held and must not call
// back into the store.
type EvictFunc func(chainID uint64, token *domain.Token)

// LRUOption configures an LRUTokenStore.
type LRUOption func(*LRUTokenStore)

// WithEvictFunc registers a callback for capacity evictions.
func WithEvictFunc(fn EvictFunc) LRUOption {
	return func(s *LRUTokenStore) {
		s.onEvict = fn
	}
}

// LRUTokenStore is a bounded storage.TokenStore. Capacity is counted in
// tokens; when it is exceeded the least recently used token is evicted
// together with its symbol slot, so the address and symbol slots of a token
// always leave the store at the same time.
//
// Get refreshes recency through either slot. Contains, Symbols and Addresses
// do not.
type LRUTokenStore struct {
	mu        sync.RWMutex
	tokens    *lru.Cache[addressKey, *domain.Token]
	bySymbol  map[symbolKey]addressKey
	onEvict   EvictFunc
	evictions uint64
}

// NewLRUTokenStore creates a store holding at most capacity tokens.
func NewLRUTokenStore(capacity int, opts ...LRUOption) (*LRUTokenStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("lru token store: %w: capacity must be positive, got %d", storage.ErrInvalidInput, capacity)
	}

	s := &LRUTokenStore{
		bySymbol: make(map[symbolKey]addressKey),
	}
	for _, opt := range opts {
		opt(s)
	}

	cache, err := lru.NewWithEvict[addressKey, *domain.Token](capacity, s.evicted)
	if err != nil {
		return nil, fmt.Errorf("lru token store: %w", err)
	}
	s.tokens = cache
	return s, nil
}

// evicted drops the symbol slot of an evicted token. The cache only evicts
// from within Add, which always runs under s.mu held for writing.
func (s *LRUTokenStore) evicted(key addressKey, token *domain.Token) {
	sk := symbolKey{chainID: key.chainID, symbol: token.Symbol}
	if s.bySymbol[sk] == key {
		delete(s.bySymbol, sk)
	}
	s.evictions++
	if s.onEvict != nil {
		s.onEvict(key.chainID, token)
	}
}

// Get returns the token under the slot and marks it as recently used.
func (s *LRUTokenStore) Get(chainID uint64, id domain.TokenID) (*domain.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.resolve(chainID, id)
	if !ok {
		return nil, false
	}
	return s.tokens.Get(key)
}

// resolve maps a slot to its LRU key. Must be called with s.mu held.
func (s *LRUTokenStore) resolve(chainID uint64, id domain.TokenID) (addressKey, bool) {
	if addr, ok := id.Address(); ok {
		return addressKey{chainID: chainID, address: addr}, true
	}
	if symbol, ok := id.Symbol(); ok {
		key, found := s.bySymbol[symbolKey{chainID: chainID, symbol: symbol}]
		return key, found
	}
	return addressKey{}, false
}

// Insert writes the token under its address and symbol slots, possibly
// evicting the least recently used token. A nil token is ignored.
func (s *LRUTokenStore) Insert(chainID uint64, token *domain.Token) {
	if token == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := addressKey{chainID: chainID, address: token.Address}

	// Re-inserting an address under a new symbol drops the old symbol slot:
	// symbol slots always resolve through the token stored at the address.
	if prev, ok := s.tokens.Peek(key); ok && prev.Symbol != token.Symbol {
		prevSymbol := symbolKey{chainID: chainID, symbol: prev.Symbol}
		if s.bySymbol[prevSymbol] == key {
			delete(s.bySymbol, prevSymbol)
		}
	}

	s.tokens.Add(key, token)
	s.bySymbol[symbolKey{chainID: chainID, symbol: token.Symbol}] = key
}

// Contains reports whether the slot is populated without touching recency.
func (s *LRUTokenStore) Contains(chainID uint64, id domain.TokenID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.resolve(chainID, id)
	if !ok {
		return false
	}
	return s.tokens.Contains(key)
}

// Symbols returns the symbol keys, optionally restricted to one chain.
func (s *LRUTokenStore) Symbols(chainID *uint64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var symbols []string
	for key := range s.bySymbol {
		if chainID != nil && key.chainID != *chainID {
			continue
		}
		symbols = append(symbols, key.symbol)
	}
	return symbols
}

// Addresses returns the address keys from least to most recently used,
// optionally restricted to one chain.
func (s *LRUTokenStore) Addresses(chainID *uint64) []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var addresses []common.Address
	for _, key := range s.tokens.Keys() {
		if chainID != nil && key.chainID != *chainID {
			continue
		}
		addresses = append(addresses, key.address)
	}
	return addresses
}

// Len returns the number of populated slots (address plus symbol slots).
func (s *LRUTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens.Len() + len(s.bySymbol)
}

// Tokens returns the number of tokens held, at most the configured capacity.
func (s *LRUTokenStore) Tokens() int {
	return s.tokens.Len()
}

// Evictions returns how many tokens were evicted for capacity.
func (s *LRUTokenStore) Evictions() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.evictions
}

var _ storage.TokenStore = (*LRUTokenStore)(nil)
