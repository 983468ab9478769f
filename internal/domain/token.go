package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MaxDecimals is the largest decimals value for which Balance is documented
// to behave. A uint256 has at most 78 decimal digits; values above this are
// accepted but out of range.
const MaxDecimals = 76

// Token is the cached ERC-20 metadata of a contract.
// A Token is immutable once constructed. Stores hand out *Token handles and
// index the same pointer under both its address and its symbol.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// NewToken creates a Token.
func NewToken(address common.Address, symbol string, decimals uint8) *Token {
	return &Token{
		Address:  address,
		Symbol:   symbol,
		Decimals: decimals,
	}
}

// Equal compares tokens by symbol only. Two tokens with the same symbol on
// different addresses or with different decimals are considered equal.
// This is not a total order and must not be used to deduplicate addresses.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Symbol == other.Symbol
}

// ID returns the address identifier of the token.
func (t *Token) ID() TokenID {
	return AddressID(t.Address)
}

// Balance scales a raw on-chain amount by the token decimals.
// The result is exact: raw * 10^-decimals, no rounding.
// A nil amount is treated as zero.
func (t *Token) Balance(raw *big.Int) decimal.Decimal {
	return ScaleAmount(raw, t.Decimals)
}

// ScaleAmount converts a raw integer amount into a fixed-point decimal with
// the given number of decimal places.
func ScaleAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		raw = new(big.Int)
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FormatAmount renders an amount with exactly decimals fractional digits,
// e.g. 1e18 with 18 decimals renders as "1.000000000000000000".
func FormatAmount(amount decimal.Decimal, decimals uint8) string {
	return amount.StringFixed(int32(decimals))
}
