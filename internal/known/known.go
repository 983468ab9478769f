// Package known holds the read-only table of well-known tokens per chain.
//
// The table is built explicitly by the caller (usually once at startup) and
// passed by reference to the code that seeds stores from it. Nothing in this
// package is initialised implicitly.
package known

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"evm-token-cache/internal/domain"
)

// Chain IDs with built-in token lists.
const (
	ChainMainnet  uint64 = 1
	ChainPolygon  uint64 = 137
	ChainArbitrum uint64 = 42161
)

// Table maps chain IDs to the well-known tokens deployed on them.
type Table struct {
	byChain  map[uint64][]*domain.Token
	bySymbol map[uint64]map[string]*domain.Token
}

// NewTable builds a table from the given per-chain token lists.
// Token order within a chain is preserved.
func NewTable(tokens map[uint64][]*domain.Token) *Table {
	t := &Table{
		byChain:  make(map[uint64][]*domain.Token, len(tokens)),
		bySymbol: make(map[uint64]map[string]*domain.Token, len(tokens)),
	}
	for chainID, list := range tokens {
		t.byChain[chainID] = append([]*domain.Token(nil), list...)
		symbols := make(map[string]*domain.Token, len(list))
		for _, tok := range list {
			symbols[tok.Symbol] = tok
		}
		t.bySymbol[chainID] = symbols
	}
	return t
}

// Default builds the table of tokens shipped with the module:
// Ethereum mainnet, Polygon PoS and Arbitrum One.
func Default() *Table {
	return NewTable(map[uint64][]*domain.Token{
		ChainMainnet: {
			token("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", "ETH", 18),
			token("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "WETH", 18),
			token("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", "WBTC", 8),
			token("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "USDC", 6),
			token("0xdAC17F958D2ee523a2206206994597C13D831ec7", "USDT", 6),
			token("0x6B175474E89094C44Da98b954EedeAC495271d0F", "DAI", 18),
			token("0xD533a949740bb3306d119CC777fa900bA034cd52", "CRV", 18),
		},
		ChainPolygon: {
			token("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", "USDC", 6),
			token("0xc2132D05D31c914a87C6611C10748AEb04B58e8F", "USDT", 6),
		},
		ChainArbitrum: {
			token("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", "WETH", 18),
			token("0xaf88d065e77c8cC2239327C5EDb3A432268e5831", "USDC", 6),
			token("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", "USDT", 6),
		},
	})
}

func token(hex, symbol string, decimals uint8) *domain.Token {
	return domain.NewToken(common.HexToAddress(hex), symbol, decimals)
}

// Tokens returns the well-known tokens of a chain, or nil for an unknown chain.
// The returned slice is a copy.
func (t *Table) Tokens(chainID uint64) []*domain.Token {
	if t == nil {
		return nil
	}
	list, ok := t.byChain[chainID]
	if !ok {
		return nil
	}
	return append([]*domain.Token(nil), list...)
}

// Lookup finds a well-known token of a chain by symbol.
func (t *Table) Lookup(chainID uint64, symbol string) (*domain.Token, bool) {
	if t == nil {
		return nil, false
	}
	tok, ok := t.bySymbol[chainID][symbol]
	return tok, ok
}

// Chains returns the chain IDs present in the table in ascending order.
func (t *Table) Chains() []uint64 {
	if t == nil {
		return nil
	}
	chains := make([]uint64, 0, len(t.byChain))
	for id := range t.byChain {
		chains = append(chains, id)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

// ChainName returns a human readable name for the chains with built-in lists.
func ChainName(chainID uint64) string {
	switch chainID {
	case ChainMainnet:
		return "mainnet"
	case ChainPolygon:
		return "polygon"
	case ChainArbitrum:
		return "arbitrum"
	default:
		return "unknown"
	}
}
