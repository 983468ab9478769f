// Package tokens is the caching retrieval layer: it serves tokens from a
// store and fetches unknown addresses from the chain.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/erc20"
	"evm-token-cache/internal/known"
	"evm-token-cache/internal/lazy"
	"evm-token-cache/internal/observability"
	"evm-token-cache/internal/storage"
)

// ErrInvalidID is returned for the zero TokenID.
var ErrInvalidID = errors.New("invalid token identifier")

// Options for creating Client.
type Options struct {
	// Required
	Store  storage.TokenStore
	Caller erc20.Caller

	// ChainID pins the chain. Zero asks the caller once.
	ChainID uint64

	// Known enables resolving a missing symbol through its well-known
	// address on the client's chain. Nil disables the fallback.
	Known *known.Table

	Logger  *log.Logger
	Metrics *observability.Metrics
}

// Client resolves token identifiers for one chain.
//
// Symbols are answered from the store only. Addresses missing from the store
// are fetched, inserted under both slots and returned. Concurrent misses on
// the same address share one fetch.
type Client struct {
	store   storage.TokenStore
	caller  erc20.Caller
	known   *known.Table
	logger  *log.Logger
	metrics *observability.Metrics

	chainID lazy.Cell[uint64]
	flight  singleflight.Group
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("tokens: store is required")
	}
	if opts.Caller == nil {
		return nil, errors.New("tokens: caller is required")
	}

	c := &Client{
		store:   opts.Store,
		caller:  opts.Caller,
		known:   opts.Known,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if opts.ChainID != 0 {
		id := opts.ChainID
		c.chainID.GetOrInit(context.Background(), func(context.Context) (uint64, error) {
			return id, nil
		})
	}
	return c, nil
}

// Store returns the backing store.
func (c *Client) Store() storage.TokenStore {
	return c.store
}

// ChainID returns the chain this client reads from.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	return c.chainID.GetOrInit(ctx, func(ctx context.Context) (uint64, error) {
		id, err := c.caller.ChainID(ctx)
		if err != nil {
			return 0, err
		}
		c.logger.Debug("Discovered chain", "chain_id", id, "chain", known.ChainName(id))
		return id, nil
	})
}

// Token resolves id. A symbol missing from the store fails with
// domain.ErrNotInStore; an address missing from the store is fetched once
// and inserted. Errors are *domain.TokenError carrying id.
func (c *Client) Token(ctx context.Context, id domain.TokenID) (*domain.Token, error) {
	if id.IsZero() {
		return nil, domain.NewTokenError(id, ErrInvalidID)
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, domain.NewTokenError(id, err)
	}

	entry := storage.EntryFor(c.store, chainID, id)
	c.metrics.RecordLookup(id.Kind().String(), entry.Occupied())

	switch e := entry.(type) {
	case *storage.OccupiedEntry:
		c.logger.Debug("Store hit", "id", id, "chain_id", chainID)
		return e.Get(), nil
	case *storage.VacantEntry:
		return c.resolveVacant(ctx, e)
	default:
		panic(fmt.Sprintf("tokens: unexpected entry %T", entry))
	}
}

func (c *Client) resolveVacant(ctx context.Context, entry *storage.VacantEntry) (*domain.Token, error) {
	id := entry.ID()

	address, ok := id.Address()
	if !ok {
		symbol, _ := id.Symbol()
		knownToken, found := c.known.Lookup(entry.ChainID(), symbol)
		if !found {
			c.logger.Debug("Symbol not in store", "symbol", symbol, "chain_id", entry.ChainID())
			return nil, domain.NewTokenError(id, domain.ErrNotInStore)
		}
		address = knownToken.Address
		c.logger.Debug("Resolving symbol through known address", "symbol", symbol, "address", address.Hex())
	}

	token, err := c.fetch(ctx, entry.ChainID(), address)
	if err != nil {
		return nil, domain.NewTokenError(id, err)
	}
	return token, nil
}

// fetch reads the token at address and inserts it. Callers asking for the
// same address while a fetch is running wait for that fetch.
//
// The fetch is detached from ctx cancellation: a caller that stops waiting
// does not abort it, and the result is still inserted for the others.
// Deadlines come from the transport timeout.
func (c *Client) fetch(ctx context.Context, chainID uint64, address common.Address) (*domain.Token, error) {
	key := fmt.Sprintf("%d:%s", chainID, address.Hex())
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.flight.DoChan(key, func() (any, error) {
		// A fetch that finished between our lookup and this call already
		// filled the slot.
		entry := storage.EntryFor(c.store, chainID, domain.AddressID(address))
		if occupied, ok := entry.(*storage.OccupiedEntry); ok {
			return occupied.Get(), nil
		}

		start := time.Now()
		token, err := erc20.FetchToken(fetchCtx, c.caller, address)
		c.metrics.RecordFetch(time.Since(start), err)
		if err != nil {
			c.logger.Warn("Token fetch failed", "address", address.Hex(), "chain_id", chainID, "err", err)
			return nil, err
		}

		c.logger.Debug("Fetched token", "symbol", token.Symbol, "address", address.Hex(), "decimals", token.Decimals)
		return entry.(*storage.VacantEntry).Insert(token), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Token), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BalanceOf reads owner's balance of token and scales it by the token's
// decimals.
func (c *Client) BalanceOf(ctx context.Context, id domain.TokenID, owner common.Address) (decimal.Decimal, error) {
	token, err := c.Token(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	raw, err := c.caller.BalanceOf(ctx, token.Address, owner)
	if err != nil {
		return decimal.Zero, domain.NewTokenError(id, err)
	}
	return token.Balance(raw), nil
}

// Tokens iterates the tokens stored for the client's chain.
func (c *Client) Tokens(ctx context.Context) (iter.Seq[*domain.Token], error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return storage.Iter(c.store, chainID).All(), nil
}

// SeedKnown inserts the well-known tokens of the client's chain.
func (c *Client) SeedKnown(ctx context.Context, table *known.Table) (int, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	n := storage.InsertKnownTokens(c.store, table, chainID)
	c.logger.Debug("Seeded known tokens", "count", n, "chain_id", chainID)
	return n, nil
}

// Lazy returns a handle that fetches the token's fields on demand without
// touching the store.
func (c *Client) Lazy(address common.Address) *erc20.LazyToken {
	return erc20.NewLazyToken(address, c.caller)
}
