package domain

import "github.com/ethereum/go-ethereum/common"

// IDKind tells which half of a TokenID is populated.
type IDKind string

const (
	IDKindSymbol  IDKind = "symbol"
	IDKindAddress IDKind = "address"
)

// String returns the string representation of IDKind.
func (k IDKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k IDKind) IsValid() bool {
	return k == IDKindSymbol || k == IDKindAddress
}

// TokenID identifies a token either by symbol or by contract address.
// It is comparable and can be used directly as a map key.
// The zero value is not a valid identifier.
type TokenID struct {
	kind    IDKind
	symbol  string
	address common.Address
}

// SymbolID identifies a token by its symbol. The string is taken as-is:
// a hex-looking symbol is never promoted to an address identifier.
func SymbolID(symbol string) TokenID {
	return TokenID{kind: IDKindSymbol, symbol: symbol}
}

// AddressID identifies a token by its contract address.
func AddressID(address common.Address) TokenID {
	return TokenID{kind: IDKindAddress, address: address}
}

// Kind returns which variant the identifier holds.
func (id TokenID) Kind() IDKind {
	return id.kind
}

// Symbol returns the symbol payload. ok is false for address identifiers.
func (id TokenID) Symbol() (symbol string, ok bool) {
	return id.symbol, id.kind == IDKindSymbol
}

// Address returns the address payload. ok is false for symbol identifiers.
func (id TokenID) Address() (address common.Address, ok bool) {
	return id.address, id.kind == IDKindAddress
}

// IsZero reports whether id was never constructed.
func (id TokenID) IsZero() bool {
	return id.kind == ""
}

// String renders the symbol verbatim or the EIP-55 checksummed address.
func (id TokenID) String() string {
	switch id.kind {
	case IDKindSymbol:
		return id.symbol
	case IDKindAddress:
		return id.address.Hex()
	default:
		return "<invalid token id>"
	}
}
