// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/subosito/gotenv"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "TOKENCACHE_"

// Store kinds.
const (
	StoreBasic = "basic"
	StoreLRU   = "lru"
)

// Config holds all settings for the token cache.
type Config struct {
	// RPCURL is the node endpoint (http(s):// or ws(s)://).
	RPCURL string `env:"RPC_URL" envDefault:"http://127.0.0.1:8545"`
	// Transport forces "http" or "ws"; empty infers it from RPCURL.
	Transport string `env:"TRANSPORT"`
	// ChainID pins the chain; zero asks the node.
	ChainID uint64 `env:"CHAIN_ID"`

	RPCTimeout time.Duration `env:"RPC_TIMEOUT" envDefault:"30s"`
	RPCRetries int           `env:"RPC_RETRIES" envDefault:"3"`

	Store       string `env:"STORE" envDefault:"basic"`
	LRUCapacity int    `env:"LRU_CAPACITY" envDefault:"1024"`

	// SeedKnown inserts the well-known tokens of the chain at startup.
	SeedKnown bool `env:"SEED_KNOWN" envDefault:"true"`
	// KnownFallback resolves store misses for well-known symbols by address.
	KnownFallback bool `env:"KNOWN_FALLBACK" envDefault:"false"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables already set, then parses Config. The result is not
// validated so callers can apply overrides first and then call Validate.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: EnvPrefix})
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks field combinations env tags cannot express.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("config: RPC URL is required")
	}
	switch c.Transport {
	case "", "http", "ws":
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	switch c.Store {
	case StoreBasic:
	case StoreLRU:
		if c.LRUCapacity <= 0 {
			return fmt.Errorf("config: LRU capacity must be positive, got %d", c.LRUCapacity)
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.RPCRetries < 0 {
		return fmt.Errorf("config: RPC retries must not be negative, got %d", c.RPCRetries)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
