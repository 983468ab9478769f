package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/known"
)

var tokenCmd = &cobra.Command{
	Use:   "token <symbol|address>...",
	Short: "Resolve tokens by symbol or address",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tADDRESS\tDECIMALS")

			var failed error
			for _, arg := range args {
				token, err := a.client.Token(ctx, parseTokenID(arg))
				if err != nil {
					a.logger.Error("Lookup failed", "id", arg, "err", err)
					failed = errors.Join(failed, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", token.Symbol, token.Address.Hex(), token.Decimals)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return failed
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <token> <owner>",
	Short: "Show an account's balance of a token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[1]) {
			return fmt.Errorf("owner %q is not an address", args[1])
		}
		owner := common.HexToAddress(args[1])

		return withApp(cmd, func(ctx context.Context, a *app) error {
			id := parseTokenID(args[0])
			token, err := a.client.Token(ctx, id)
			if err != nil {
				return err
			}
			bal, err := a.client.BalanceOf(ctx, id, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", domain.FormatAmount(bal, token.Decimals), token.Symbol)
			return nil
		})
	},
}

var lazyCmd = &cobra.Command{
	Use:   "lazy <address>",
	Short: "Read every metadata field of a contract without caching it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("%q is not an address", args[0])
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			lt := a.client.Lazy(common.HexToAddress(args[0]))

			name, err := lt.Name(ctx)
			if err != nil {
				return err
			}
			symbol, err := lt.Symbol(ctx)
			if err != nil {
				return err
			}
			decimals, err := lt.Decimals(ctx)
			if err != nil {
				return err
			}
			supply, err := lt.TotalSupply(ctx)
			if err != nil {
				return err
			}
			total, err := lt.Balance(ctx, supply)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "address\t%s\n", lt.Address().Hex())
			fmt.Fprintf(w, "name\t%s\n", name)
			fmt.Fprintf(w, "symbol\t%s\n", symbol)
			fmt.Fprintf(w, "decimals\t%d\n", decimals)
			fmt.Fprintf(w, "total supply\t%s\n", domain.FormatAmount(total, decimals))
			return w.Flush()
		})
	},
}

var knownCmd = &cobra.Command{
	Use:   "known [chain-id]",
	Short: "List the built-in well-known tokens",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := known.Default()
		chains := table.Chains()
		if len(args) == 1 {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chain id %q: %w", args[0], err)
			}
			chains = []uint64{id}
		}
		return printKnown(cmd.OutOrStdout(), table, chains)
	},
}

func printKnown(out io.Writer, table *known.Table, chains []uint64) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tSYMBOL\tADDRESS\tDECIMALS")
	for _, chainID := range chains {
		for _, token := range table.Tokens(chainID) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", known.ChainName(chainID), token.Symbol, token.Address.Hex(), token.Decimals)
		}
	}
	return w.Flush()
}

// parseTokenID treats 0x-prefixed 20-byte hex as an address and anything
// else as a symbol.
func parseTokenID(arg string) domain.TokenID {
	if len(arg) == 42 && common.IsHexAddress(arg) {
		return domain.AddressID(common.HexToAddress(arg))
	}
	return domain.SymbolID(arg)
}

// withApp builds the app, runs fn with a context cancelled on SIGINT or
// SIGTERM, and tears everything down afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}
