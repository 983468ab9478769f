package rpc

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockLatest is the block tag used for every read.
const BlockLatest = "latest"

type callMsg struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// EthCall executes a read-only message call against the latest block and
// returns the raw return data.
func EthCall(ctx context.Context, c Client, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	params := []any{callMsg{To: to, Data: data}, BlockLatest}
	if err := c.Call(ctx, "eth_call", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChainID asks the node which chain it serves.
func ChainID(ctx context.Context, c Client) (uint64, error) {
	var id hexutil.Uint64
	if err := c.Call(ctx, "eth_chainId", nil, &id); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Transport names accepted by Dial.
const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

// Dial connects to endpoint. An empty transport is inferred from the URL
// scheme: ws:// and wss:// use WebSocket, everything else HTTP. Over
// WebSocket only WithTimeout applies, as the per-call timeout; retries are
// replaced by reconnects.
func Dial(ctx context.Context, transport, endpoint string, observer Observer, opts ...ClientOption) (Client, error) {
	if transport == "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		transport = TransportHTTP
		if s := strings.ToLower(u.Scheme); s == "ws" || s == "wss" {
			transport = TransportWS
		}
	}

	switch transport {
	case TransportWS:
		settings := NewHTTPClient(endpoint, opts...)
		cfg := DefaultWSConfig()
		if settings.client != nil && settings.client.Timeout > 0 {
			cfg.CallTimeout = settings.client.Timeout
		}
		ws, err := NewWSClient(ctx, endpoint, &cfg, observer)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case TransportHTTP:
		opts = append(opts, WithObserver(observer))
		return NewHTTPClient(endpoint, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", transport)
	}
}
