// Command tokencache resolves ERC-20 tokens through an in-memory cache
// backed by an Ethereum JSON-RPC node.
//
// Usage:
//
//	tokencache token WETH 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
//	tokencache balance USDC 0x28C6c06298d514Db089934071355E5743bf21d60
//	tokencache lazy 0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2
//	tokencache known 42161
//
// Settings come from TOKENCACHE_* environment variables (optionally from a
// .env file); flags override them.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"evm-token-cache/internal/config"
)

var (
	envFile     string
	rpcURL      string
	transport   string
	chainID     uint64
	storeKind   string
	lruCapacity int
	logLevel    string
	metricsAddr string
	noSeed      bool
	fallback    bool

	cfg    *config.Config
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "tokencache"})

	rootCmd = &cobra.Command{
		Use:           "tokencache",
		Short:         "Resolve ERC-20 token metadata through a local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&rpcURL, "rpc-url", "", "node endpoint (overrides TOKENCACHE_RPC_URL)")
	pf.StringVar(&transport, "transport", "", "force transport: http or ws")
	pf.Uint64Var(&chainID, "chain-id", 0, "pin the chain ID instead of asking the node")
	pf.StringVar(&storeKind, "store", "", "store kind: basic or lru")
	pf.IntVar(&lruCapacity, "lru-capacity", 0, "maximum tokens kept by the lru store")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	pf.BoolVar(&noSeed, "no-seed", false, "do not seed the store with well-known tokens")
	pf.BoolVar(&fallback, "known-fallback", false, "resolve missing well-known symbols by address")

	rootCmd.AddCommand(tokenCmd, balanceCmd, lazyCmd, knownCmd)
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load(envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("rpc-url") {
		c.RPCURL = rpcURL
	}
	if flags.Changed("transport") {
		c.Transport = transport
	}
	if flags.Changed("chain-id") {
		c.ChainID = chainID
	}
	if flags.Changed("store") {
		c.Store = storeKind
	}
	if flags.Changed("lru-capacity") {
		c.LRUCapacity = lruCapacity
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("metrics-addr") {
		c.MetricsAddr = metricsAddr
	}
	if flags.Changed("no-seed") {
		c.SeedKnown = !noSeed
	}
	if flags.Changed("known-fallback") {
		c.KnownFallback = fallback
	}
	if err := c.Validate(); err != nil {
		return err
	}

	logger.SetLevel(c.Level())
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", "err", err)
		os.Exit(1)
	}
}
