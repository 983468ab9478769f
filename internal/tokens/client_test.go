package tokens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/known"
	"evm-token-cache/internal/observability"
	"evm-token-cache/internal/storage"
	"evm-token-cache/internal/storage/memory"
)

var (
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type contract struct {
	symbol   string
	decimals uint8
}

// fakeCaller serves a fixed set of contracts. gate, when set, blocks every
// symbol read until it is closed.
type fakeCaller struct {
	chainID   uint64
	contracts map[common.Address]contract
	gate      chan struct{}
	err       error

	symbolCalls   atomic.Int32
	decimalsCalls atomic.Int32
	chainIDCalls  atomic.Int32
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		chainID: known.ChainMainnet,
		contracts: map[common.Address]contract{
			wethAddr: {"WETH", 18},
			usdcAddr: {"USDC", 6},
		},
	}
}

func (f *fakeCaller) lookup(ctx context.Context, token common.Address) (contract, error) {
	if f.err != nil {
		return contract{}, f.err
	}
	c, ok := f.contracts[token]
	if !ok {
		return contract{}, fmt.Errorf("%w: empty return data", domain.ErrDecode)
	}
	return c, nil
}

func (f *fakeCaller) Symbol(ctx context.Context, token common.Address) (string, error) {
	f.symbolCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c, err := f.lookup(ctx, token)
	return c.symbol, err
}

func (f *fakeCaller) Name(ctx context.Context, token common.Address) (string, error) {
	c, err := f.lookup(ctx, token)
	return c.symbol, err
}

func (f *fakeCaller) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	f.decimalsCalls.Add(1)
	c, err := f.lookup(ctx, token)
	return c.decimals, err
}

func (f *fakeCaller) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeCaller) BalanceOf(ctx context.Context, token, _ common.Address) (*big.Int, error) {
	if _, err := f.lookup(ctx, token); err != nil {
		return nil, err
	}
	return big.NewInt(12_345_678), nil
}

func (f *fakeCaller) Allowance(ctx context.Context, _, _, _ common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeCaller) ChainID(context.Context) (uint64, error) {
	f.chainIDCalls.Add(1)
	return f.chainID, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestClient(t *testing.T, caller *fakeCaller, store storage.TokenStore, opts ...func(*Options)) *Client {
	t.Helper()
	o := Options{Store: store, Caller: caller, Logger: quietLogger()}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := New(o)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Caller: newFakeCaller()})
	assert.Error(t, err)

	_, err = New(Options{Store: memory.NewTokenStore()})
	assert.Error(t, err)
}

func TestClient_SymbolMissIsNotInStore(t *testing.T) {
	caller := newFakeCaller()
	client := newTestClient(t, caller, memory.NewTokenStore())

	tok, err := client.Token(context.Background(), domain.SymbolID("WETH"))

	assert.Nil(t, tok)
	require.ErrorIs(t, err, domain.ErrNotInStore)
	var tokenErr *domain.TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, domain.SymbolID("WETH"), tokenErr.ID)
	assert.Zero(t, caller.symbolCalls.Load(), "symbols are never fetched")
}

func TestClient_AddressMissFetchesThenCaches(t *testing.T) {
	caller := newFakeCaller()
	store := memory.NewTokenStore()
	client := newTestClient(t, caller, store)
	ctx := context.Background()

	tok, err := client.Token(ctx, domain.AddressID(wethAddr))
	require.NoError(t, err)
	assert.Equal(t, "WETH", tok.Symbol)
	assert.Equal(t, uint8(18), tok.Decimals)

	// Both slots are filled and further lookups hit the store.
	again, err := client.Token(ctx, domain.AddressID(wethAddr))
	require.NoError(t, err)
	bySymbol, err := client.Token(ctx, domain.SymbolID("WETH"))
	require.NoError(t, err)

	assert.Same(t, tok, again)
	assert.Same(t, tok, bySymbol)
	assert.Equal(t, int32(1), caller.symbolCalls.Load())
	assert.Equal(t, int32(1), caller.decimalsCalls.Load())
	assert.Equal(t, 2, store.Len())
}

func TestClient_ConcurrentMissesShareOneFetch(t *testing.T) {
	caller := newFakeCaller()
	caller.gate = make(chan struct{})
	client := newTestClient(t, caller, memory.NewTokenStore())

	const callers = 12
	var wg sync.WaitGroup
	results := make([]*domain.Token, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := client.Token(context.Background(), domain.AddressID(usdcAddr))
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}

	time.Sleep(30 * time.Millisecond)
	close(caller.gate)
	wg.Wait()

	assert.Equal(t, int32(1), caller.symbolCalls.Load())
	for _, tok := range results {
		assert.Same(t, results[0], tok)
	}
}

func TestClient_FailedFetchLeavesStoreUntouched(t *testing.T) {
	caller := newFakeCaller()
	caller.err = fmt.Errorf("%w: connection refused", domain.ErrTransport)
	store := memory.NewTokenStore()
	client := newTestClient(t, caller, store)

	tok, err := client.Token(context.Background(), domain.AddressID(wethAddr))

	assert.Nil(t, tok)
	require.ErrorIs(t, err, domain.ErrTransport)
	var tokenErr *domain.TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, domain.AddressID(wethAddr), tokenErr.ID)
	assert.Equal(t, 0, store.Len())

	// No internal retry: the next call fetches again.
	caller.err = nil
	tok, err = client.Token(context.Background(), domain.AddressID(wethAddr))
	require.NoError(t, err)
	assert.Equal(t, "WETH", tok.Symbol)
}

func TestClient_DecodeError(t *testing.T) {
	caller := newFakeCaller()
	client := newTestClient(t, caller, memory.NewTokenStore())

	_, err := client.Token(context.Background(), domain.AddressID(common.HexToAddress("0xdead")))

	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestClient_InvalidID(t *testing.T) {
	client := newTestClient(t, newFakeCaller(), memory.NewTokenStore())

	_, err := client.Token(context.Background(), domain.TokenID{})

	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestClient_KnownFallback(t *testing.T) {
	caller := newFakeCaller()
	store := memory.NewTokenStore()
	client := newTestClient(t, caller, store, func(o *Options) {
		o.Known = known.Default()
	})

	tok, err := client.Token(context.Background(), domain.SymbolID("USDC"))

	require.NoError(t, err)
	assert.Equal(t, usdcAddr, tok.Address)
	assert.Equal(t, int32(1), caller.symbolCalls.Load())
	assert.True(t, store.Contains(known.ChainMainnet, domain.SymbolID("USDC")))

	_, err = client.Token(context.Background(), domain.SymbolID("NOPE"))
	assert.ErrorIs(t, err, domain.ErrNotInStore)
}

func TestClient_ChainIDDiscoveredOnce(t *testing.T) {
	caller := newFakeCaller()
	caller.chainID = known.ChainArbitrum
	client := newTestClient(t, caller, memory.NewTokenStore())

	for i := 0; i < 3; i++ {
		id, err := client.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, known.ChainArbitrum, id)
	}
	assert.Equal(t, int32(1), caller.chainIDCalls.Load())
}

func TestClient_FixedChainID(t *testing.T) {
	caller := newFakeCaller()
	store := memory.NewTokenStore()
	client := newTestClient(t, caller, store, func(o *Options) {
		o.ChainID = known.ChainPolygon
	})

	_, err := client.Token(context.Background(), domain.AddressID(wethAddr))
	require.NoError(t, err)

	assert.Zero(t, caller.chainIDCalls.Load())
	assert.True(t, store.Contains(known.ChainPolygon, domain.AddressID(wethAddr)))
	assert.False(t, store.Contains(known.ChainMainnet, domain.AddressID(wethAddr)))
}

func TestClient_BalanceOf(t *testing.T) {
	caller := newFakeCaller()
	client := newTestClient(t, caller, memory.NewTokenStore())

	bal, err := client.BalanceOf(context.Background(), domain.AddressID(usdcAddr), owner)

	require.NoError(t, err)
	assert.Equal(t, "12.345678", domain.FormatAmount(bal, 6))
}

func TestClient_BalanceOfUnknownSymbol(t *testing.T) {
	client := newTestClient(t, newFakeCaller(), memory.NewTokenStore())

	_, err := client.BalanceOf(context.Background(), domain.SymbolID("WETH"), owner)

	assert.ErrorIs(t, err, domain.ErrNotInStore)
}

func TestClient_SeedAndIterate(t *testing.T) {
	caller := newFakeCaller()
	client := newTestClient(t, caller, memory.NewTokenStore())
	ctx := context.Background()

	n, err := client.SeedKnown(ctx, known.Default())
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	tokens, err := client.Tokens(ctx)
	require.NoError(t, err)

	count := 0
	for range tokens {
		count++
	}
	assert.Equal(t, 7, count)

	// Seeded tokens are served without a fetch.
	tok, err := client.Token(ctx, domain.SymbolID("DAI"))
	require.NoError(t, err)
	assert.Equal(t, uint8(18), tok.Decimals)
	assert.Zero(t, caller.symbolCalls.Load())
}

func TestClient_Lazy(t *testing.T) {
	caller := newFakeCaller()
	store := memory.NewTokenStore()
	client := newTestClient(t, caller, store)

	lt := client.Lazy(usdcAddr)
	decimals, err := lt.Decimals(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)
	assert.Equal(t, 0, store.Len(), "lazy tokens bypass the store")
}

func TestClient_Metrics(t *testing.T) {
	m := observability.NewMetrics("", prometheus.NewRegistry())
	client := newTestClient(t, newFakeCaller(), memory.NewTokenStore(), func(o *Options) {
		o.Metrics = m
	})
	ctx := context.Background()

	_, _ = client.Token(ctx, domain.AddressID(wethAddr))
	_, _ = client.Token(ctx, domain.AddressID(wethAddr))
	_, _ = client.Token(ctx, domain.SymbolID("NOPE"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("address", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("address", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("symbol", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("ok")))
}

func TestClient_LRUStore(t *testing.T) {
	store, err := memory.NewLRUTokenStore(1)
	require.NoError(t, err)
	caller := newFakeCaller()
	client := newTestClient(t, caller, store)
	ctx := context.Background()

	_, err = client.Token(ctx, domain.AddressID(wethAddr))
	require.NoError(t, err)
	_, err = client.Token(ctx, domain.AddressID(usdcAddr))
	require.NoError(t, err)

	// WETH was evicted with both its slots.
	_, err = client.Token(ctx, domain.SymbolID("WETH"))
	assert.True(t, errors.Is(err, domain.ErrNotInStore))
}

func TestClient_AbandonedCallerDoesNotAbortFetch(t *testing.T) {
	caller := newFakeCaller()
	caller.gate = make(chan struct{})
	store := memory.NewTokenStore()
	client := newTestClient(t, caller, store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Token(ctx, domain.AddressID(wethAddr))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(caller.gate)

	assert.Eventually(t, func() bool {
		return store.Contains(known.ChainMainnet, domain.SymbolID("WETH"))
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), caller.symbolCalls.Load())
}
