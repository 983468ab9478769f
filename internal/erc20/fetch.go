package erc20

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"evm-token-cache/internal/domain"
)

// FetchToken reads symbol and decimals concurrently and builds the token.
// Either failure cancels the other read.
func FetchToken(ctx context.Context, caller Caller, address common.Address) (*domain.Token, error) {
	var (
		symbol   string
		decimals uint8
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		symbol, err = caller.Symbol(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		decimals, err = caller.Decimals(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.NewToken(address, symbol, decimals), nil
}
