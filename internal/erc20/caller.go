// Package erc20 reads token metadata and balances from ERC-20 contracts.
package erc20

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Caller performs the contract reads the cache depends on. Every method may
// block on the network; errors wrap domain.ErrTransport or domain.ErrDecode.
type Caller interface {
	Symbol(ctx context.Context, token common.Address) (string, error)
	Name(ctx context.Context, token common.Address) (string, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
	TotalSupply(ctx context.Context, token common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// ChainID returns the chain the caller reads from.
	ChainID(ctx context.Context) (uint64, error)
}
