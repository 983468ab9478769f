package erc20

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/lazy"
)

// LazyToken fetches each metadata field on first use and keeps it.
// Balances and allowances are read through on every call.
//
// A failed fetch leaves its field empty; the next call retries.
type LazyToken struct {
	address common.Address
	caller  Caller

	name        lazy.Cell[string]
	symbol      lazy.Cell[string]
	decimals    lazy.Cell[uint8]
	totalSupply lazy.Cell[*big.Int]
}

// NewLazyToken returns a handle for the contract at address. Nothing is
// fetched until a getter is called.
func NewLazyToken(address common.Address, caller Caller) *LazyToken {
	return &LazyToken{address: address, caller: caller}
}

// Address returns the contract address. It never touches the node.
func (t *LazyToken) Address() common.Address {
	return t.address
}

// Name returns the token name, fetching it on first use.
func (t *LazyToken) Name(ctx context.Context) (string, error) {
	v, err := t.name.GetOrInit(ctx, func(ctx context.Context) (string, error) {
		return t.caller.Name(ctx, t.address)
	})
	return v, t.wrap(err)
}

// Symbol returns the token symbol, fetching it on first use.
func (t *LazyToken) Symbol(ctx context.Context) (string, error) {
	v, err := t.symbol.GetOrInit(ctx, func(ctx context.Context) (string, error) {
		return t.caller.Symbol(ctx, t.address)
	})
	return v, t.wrap(err)
}

// Decimals returns the token decimals, fetching them on first use.
func (t *LazyToken) Decimals(ctx context.Context) (uint8, error) {
	v, err := t.decimals.GetOrInit(ctx, func(ctx context.Context) (uint8, error) {
		return t.caller.Decimals(ctx, t.address)
	})
	return v, t.wrap(err)
}

// TotalSupply is memoized like the other fields even though it can change
// on-chain.
func (t *LazyToken) TotalSupply(ctx context.Context) (*big.Int, error) {
	v, err := t.totalSupply.GetOrInit(ctx, func(ctx context.Context) (*big.Int, error) {
		return t.caller.TotalSupply(ctx, t.address)
	})
	if err != nil {
		return nil, t.wrap(err)
	}
	return new(big.Int).Set(v), nil
}

// Balance scales raw by the token's decimals. Only the decimals field is
// fetched.
func (t *LazyToken) Balance(ctx context.Context, raw *big.Int) (decimal.Decimal, error) {
	decimals, err := t.Decimals(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.ScaleAmount(raw, decimals), nil
}

// BalanceOf reads the raw balance of owner. Balances are never memoized.
func (t *LazyToken) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	v, err := t.caller.BalanceOf(ctx, t.address, owner)
	return v, t.wrap(err)
}

// Allowance reads how much spender may move on behalf of owner. It is never memoized.
func (t *LazyToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	v, err := t.caller.Allowance(ctx, t.address, owner, spender)
	return v, t.wrap(err)
}

func (t *LazyToken) wrap(err error) error {
	if err == nil {
		return nil
	}
	return domain.NewTokenError(domain.AddressID(t.address), err)
}
