// Package rpc is a minimal Ethereum JSON-RPC 2.0 transport over HTTP or
// WebSocket.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Client sends JSON-RPC requests to an Ethereum node.
type Client interface {
	// Call invokes method with params and decodes the result into result.
	// A nil result discards the response body.
	Call(ctx context.Context, method string, params []any, result any) error

	// Close releases the underlying connection.
	Close() error
}

// Observer is notified after every request with the method, its latency and
// the final error.
type Observer func(method string, elapsed time.Duration, err error)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is an error object returned by the node.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

func newRequest(id uint64, method string, params []any) request {
	if params == nil {
		params = []any{}
	}
	return request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

// decodeResult unpacks a response into result. Node errors come back as *Error.
func decodeResult(resp *response, result any) error {
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}
