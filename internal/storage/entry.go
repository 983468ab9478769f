package storage

import "evm-token-cache/internal/domain"

// Entry is a view into a single store slot, either *OccupiedEntry or
// *VacantEntry.
type Entry interface {
	// ChainID returns the chain of the slot.
	ChainID() uint64
	// ID returns the identifier of the slot.
	ID() domain.TokenID
	// Occupied reports whether the slot held a token when the entry was built.
	Occupied() bool
}

// EntryFor looks the slot up exactly once and returns a view of it.
//
// The entry is not a lock: another caller may fill a vacant slot before
// VacantEntry.Insert runs, in which case the later insert wins.
func EntryFor(store TokenStore, chainID uint64, id domain.TokenID) Entry {
	if token, ok := store.Get(chainID, id); ok {
		return &OccupiedEntry{chainID: chainID, id: id, token: token}
	}
	return &VacantEntry{chainID: chainID, id: id, store: store}
}

// OccupiedEntry is a view into a populated slot.
type OccupiedEntry struct {
	chainID uint64
	id      domain.TokenID
	token   *domain.Token
}

// ChainID returns the chain the slot belongs to.
func (e *OccupiedEntry) ChainID() uint64 { return e.chainID }

// ID returns the identifier the slot was looked up by.
func (e *OccupiedEntry) ID() domain.TokenID { return e.id }

// Occupied reports whether the slot holds a token.
func (e *OccupiedEntry) Occupied() bool { return true }

// Get returns the token held by the slot.
func (e *OccupiedEntry) Get() *domain.Token {
	return e.token
}

// VacantEntry is a view into an empty slot. It keeps the chain and identifier
// so a caller can fetch the token and insert it without a second lookup.
type VacantEntry struct {
	chainID uint64
	id      domain.TokenID
	store   TokenStore
}

// ChainID returns the chain the slot belongs to.
func (e *VacantEntry) ChainID() uint64 { return e.chainID }

// ID returns the identifier the slot was looked up by.
func (e *VacantEntry) ID() domain.TokenID { return e.id }

// Occupied reports whether the slot holds a token.
func (e *VacantEntry) Occupied() bool { return false }

// Insert writes the token into both of its slots and returns the handle now
// stored under the slot this entry was created for.
//
// If the token does not match the entry's identifier (neither its address
// nor its symbol), the slot stays empty and the inserted token is returned.
func (e *VacantEntry) Insert(token *domain.Token) *domain.Token {
	e.store.Insert(e.chainID, token)
	if stored, ok := e.store.Get(e.chainID, e.id); ok {
		return stored
	}
	return token
}
