package erc20

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"evm-token-cache/internal/domain"
	"evm-token-cache/internal/lazy"
	"evm-token-cache/internal/rpc"
)

// Client implements Caller with eth_call over an rpc.Client.
type Client struct {
	rpc     rpc.Client
	chainID lazy.Cell[uint64]
}

// Option configures Client.
type Option func(*Client)

// WithChainID pins the chain ID instead of asking the node.
func WithChainID(id uint64) Option {
	return func(c *Client) {
		c.chainID.GetOrInit(context.Background(), func(context.Context) (uint64, error) {
			return id, nil
		})
	}
}

// NewClient creates a Caller backed by rpcClient.
func NewClient(rpcClient rpc.Client, opts ...Option) *Client {
	c := &Client{rpc: rpcClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChainID returns the configured chain ID, or asks the node once with
// eth_chainId. A failed lookup is retried on the next call.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	return c.chainID.GetOrInit(ctx, func(ctx context.Context) (uint64, error) {
		id, err := rpc.ChainID(ctx, c.rpc)
		if err != nil {
			return 0, fmt.Errorf("%w: eth_chainId: %w", domain.ErrTransport, err)
		}
		return id, nil
	})
}

// Name calls name() on token, accepting string or bytes32 output.
func (c *Client) Name(ctx context.Context, token common.Address) (string, error) {
	return c.callString(ctx, token, "name")
}

// Symbol calls symbol() on token, accepting string or bytes32 output.
func (c *Client) Symbol(ctx context.Context, token common.Address) (string, error) {
	return c.callString(ctx, token, "symbol")
}

// Decimals calls decimals() on token.
func (c *Client) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// TotalSupply calls totalSupply() on token.
func (c *Client) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	return c.callUint(ctx, token, "totalSupply")
}

// BalanceOf calls balanceOf(owner) on token.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return c.callUint(ctx, token, "balanceOf", owner)
}

// Allowance calls allowance(owner, spender) on token.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return c.callUint(ctx, token, "allowance", owner, spender)
}

func (c *Client) callUint(ctx context.Context, token common.Address, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, token, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// callString decodes a string getter, accepting a bytes32 return for
// contracts that predate the final ERC-20 interface.
func (c *Client) callString(ctx context.Context, token common.Address, method string) (string, error) {
	data, err := c.raw(ctx, token, method)
	if err != nil {
		return "", err
	}

	out, err := ABI.Unpack(method, data)
	if err == nil {
		return *abi.ConvertType(out[0], new(string)).(*string), nil
	}

	if s, ok := decodeBytes32String(data); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %s: %w", domain.ErrDecode, method, err)
}

func (c *Client) call(ctx context.Context, token common.Address, method string, args ...any) ([]any, error) {
	data, err := c.raw(ctx, token, method, args...)
	if err != nil {
		return nil, err
	}

	out, err := ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecode, method, err)
	}
	return out, nil
}

func (c *Client) raw(ctx context.Context, token common.Address, method string, args ...any) ([]byte, error) {
	input, err := ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	data, err := rpc.EthCall(ctx, c.rpc, token, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrTransport, method, err)
	}
	return data, nil
}

func decodeBytes32String(data []byte) (string, bool) {
	if len(data) != 32 {
		return "", false
	}
	out, err := bytes32Output.Unpack(data)
	if err != nil {
		return "", false
	}
	b := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	s := bytes.TrimRight(b[:], "\x00")
	if len(s) == 0 {
		return "", false
	}
	return string(s), true
}

var _ Caller = (*Client)(nil)
