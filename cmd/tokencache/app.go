package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"evm-token-cache/internal/config"
	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/erc20"
	"evm-token-cache/internal/known"
	"evm-token-cache/internal/observability"
	"evm-token-cache/internal/rpc"
	"evm-token-cache/internal/storage"
	"evm-token-cache/internal/storage/memory"
	"evm-token-cache/internal/tokens"
)

// app wires the transport, store and retrieval client for one invocation.
type app struct {
	logger  *log.Logger
	metrics *observability.Metrics
	rpc     rpc.Client
	client  *tokens.Client
	server  *http.Server
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics("", registry)

	a := &app{logger: logger, metrics: metrics}

	if cfg.MetricsAddr != "" {
		a.server = startMetricsServer(cfg.MetricsAddr, registry, logger)
	}

	store, err := newStore(cfg, metrics, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	client, err := rpc.Dial(ctx, cfg.Transport, cfg.RPCURL, metrics.ObserveRPC,
		rpc.WithTimeout(cfg.RPCTimeout),
		rpc.WithMaxRetries(cfg.RPCRetries),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect %s: %w", cfg.RPCURL, err)
	}
	a.rpc = client

	var callerOpts []erc20.Option
	if cfg.ChainID != 0 {
		callerOpts = append(callerOpts, erc20.WithChainID(cfg.ChainID))
	}

	opts := tokens.Options{
		Store:   store,
		Caller:  erc20.NewClient(client, callerOpts...),
		ChainID: cfg.ChainID,
		Logger:  logger,
		Metrics: metrics,
	}
	table := known.Default()
	if cfg.KnownFallback {
		opts.Known = table
	}

	a.client, err = tokens.New(opts)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.SeedKnown {
		if _, err := a.client.SeedKnown(ctx, table); err != nil {
			a.close()
			return nil, fmt.Errorf("seed known tokens: %w", err)
		}
	}
	return a, nil
}

func newStore(cfg *config.Config, metrics *observability.Metrics, logger *log.Logger) (storage.TokenStore, error) {
	switch cfg.Store {
	case config.StoreLRU:
		return memory.NewLRUTokenStore(cfg.LRUCapacity, memory.WithEvictFunc(func(chainID uint64, token *domain.Token) {
			metrics.RecordEviction()
			logger.Debug("Evicted token", "symbol", token.Symbol, "chain_id", chainID)
		}))
	default:
		return memory.NewTokenStore(), nil
	}
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler(registry))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "err", err)
		}
	}()
	return server
}

func (a *app) close() {
	if a.rpc != nil {
		a.rpc.Close()
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.server.Shutdown(ctx)
	}
}
