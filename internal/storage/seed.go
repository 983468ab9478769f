package storage

import "evm-token-cache/internal/known"

// InsertKnownTokens seeds the store with the well-known tokens of chainID.
// Chains missing from the table are a no-op. It returns the number of tokens
// inserted.
func InsertKnownTokens(store TokenStore, table *known.Table, chainID uint64) int {
	tokens := table.Tokens(chainID)
	for _, token := range tokens {
		store.Insert(chainID, token)
	}
	return len(tokens)
}
