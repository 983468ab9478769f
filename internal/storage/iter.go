package storage

import (
	"iter"

	"github.com/ethereum/go-ethereum/common"

	"evm-token-cache/internal/domain"
)

// Iterator walks the tokens of one chain.
//
// The address list is taken when the iterator is created; each step then
// re-reads the token through TokenStore.Get. Slots removed in between are
// skipped and tokens inserted afterwards are not visited.
type Iterator struct {
	store     TokenStore
	chainID   uint64
	addresses []common.Address
	index     int
}

// Iter returns an iterator over the tokens of chainID.
func Iter(store TokenStore, chainID uint64) *Iterator {
	return &Iterator{
		store:     store,
		chainID:   chainID,
		addresses: store.Addresses(Chain(chainID)),
	}
}

// Next returns the next token. ok is false once the iterator is exhausted.
func (it *Iterator) Next() (token *domain.Token, ok bool) {
	for it.index < len(it.addresses) {
		addr := it.addresses[it.index]
		it.index++

		if token, ok := it.store.Get(it.chainID, domain.AddressID(addr)); ok {
			return token, true
		}
	}
	return nil, false
}

// Remaining returns the number of addresses not yet visited.
func (it *Iterator) Remaining() int {
	return len(it.addresses) - it.index
}

// All adapts the iterator to a range-over-func sequence.
func (it *Iterator) All() iter.Seq[*domain.Token] {
	return func(yield func(*domain.Token) bool) {
		for {
			token, ok := it.Next()
			if !ok || !yield(token) {
				return
			}
		}
	}
}

// Collect drains the iterator of chainID into a slice.
func Collect(store TokenStore, chainID uint64) []*domain.Token {
	var tokens []*domain.Token
	for token := range Iter(store, chainID).All() {
		tokens = append(tokens, token)
	}
	return tokens
}
