package storage_test

import (
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/known"
	"evm-token-cache/internal/storage"
	"evm-token-cache/internal/storage/memory"
)

func symbolsOf(tokens []*domain.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Symbol)
	}
	sort.Strings(out)
	return out
}

func TestIter_BasicStore(t *testing.T) {
	table := known.Default()
	store := memory.NewTokenStore()

	for _, sym := range []string{"WETH", "WBTC", "USDC"} {
		tok, ok := table.Lookup(known.ChainMainnet, sym)
		require.True(t, ok)
		store.Insert(known.ChainMainnet, tok)
	}

	tokens := storage.Collect(store, known.ChainMainnet)

	assert.Equal(t, []string{"USDC", "WBTC", "WETH"}, symbolsOf(tokens))
}

func TestIter_OnlyRequestedChain(t *testing.T) {
	store := memory.NewTokenStore()
	store.Insert(1, domain.NewToken(daiAddr, "DAI", 18))
	store.Insert(2, domain.NewToken(common.HexToAddress("0x02"), "OTHER", 18))

	assert.Equal(t, []string{"DAI"}, symbolsOf(storage.Collect(store, 1)))
	assert.Empty(t, storage.Collect(store, 3))
}

func TestIter_NextAndRemaining(t *testing.T) {
	store := memory.NewTokenStore()
	store.Insert(1, domain.NewToken(daiAddr, "DAI", 18))

	it := storage.Iter(store, 1)
	assert.Equal(t, 1, it.Remaining())

	tok, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "DAI", tok.Symbol)

	_, ok = it.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, it.Remaining())
}

func TestIter_SkipsEvictedSlots(t *testing.T) {
	store, err := memory.NewLRUTokenStore(2)
	require.NoError(t, err)

	a := domain.NewToken(common.HexToAddress("0x0a"), "A", 18)
	b := domain.NewToken(common.HexToAddress("0x0b"), "B", 18)
	store.Insert(1, a)
	store.Insert(1, b)

	// Addresses are captured now; evict A before iterating.
	it := storage.Iter(store, 1)
	store.Insert(1, domain.NewToken(common.HexToAddress("0x0c"), "C", 18))

	var seen []string
	for tok := range it.All() {
		seen = append(seen, tok.Symbol)
	}

	assert.Equal(t, []string{"B"}, seen)
}

func TestIter_EarlyBreak(t *testing.T) {
	store := memory.NewTokenStore()
	storage.InsertKnownTokens(store, known.Default(), known.ChainMainnet)

	count := 0
	for range storage.Iter(store, known.ChainMainnet).All() {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}
