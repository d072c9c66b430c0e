// Copyright 2025 Certen Protocol
//
// KV adapter wrapping CometBFT's dbm.DB so the dual-store layer's embedded
// secondary store can use its persistent, per-key-safe storage directly.

package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// KV is the minimal key-value contract the dual-store layer's embedded
// secondary depends on.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	// Scan returns all (key, value) pairs whose key has the given prefix,
	// in ascending key order.
	Scan(prefix []byte) ([]KVPair, error)
}

// KVPair is a single key/value pair returned by Scan.
type KVPair struct {
	Key   []byte
	Value []byte
}

// Adapter wraps a CometBFT dbm.DB and exposes the KV interface.
type Adapter struct {
	db dbm.DB
}

// NewAdapter creates a new Adapter for the given underlying DB.
func NewAdapter(db dbm.DB) *Adapter {
	return &Adapter{db: db}
}

// NewEmbeddedStore opens (creating if absent) a GoLevelDB-backed embedded
// store rooted at dataDir. This is the always-present secondary store: it
// holds the encrypted keystore and is the source of truth for ownership.
func NewEmbeddedStore(name, dataDir string) (*Adapter, error) {
	db, err := dbm.NewGoLevelDB(name, dataDir)
	if err != nil {
		return nil, err
	}
	return NewAdapter(db), nil
}

// NewMemoryStore returns an in-memory embedded store, used by tests and by
// ephemeral deployments that do not need durability across restarts.
func NewMemoryStore() *Adapter {
	return NewAdapter(dbm.NewMemDB())
}

// Get implements KV.Get.
func (a *Adapter) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.Get(key)
}

// Set implements KV.Set. Writes are synchronous so a crash immediately
// after a successful call never loses the write.
func (a *Adapter) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.SetSync(key, value)
}

// Has implements KV.Has.
func (a *Adapter) Has(key []byte) (bool, error) {
	if a.db == nil {
		return false, nil
	}
	return a.db.Has(key)
}

// Delete implements KV.Delete.
func (a *Adapter) Delete(key []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.DeleteSync(key)
}

// Scan implements KV.Scan using a forward iterator bounded by the
// lexicographic successor of prefix.
func (a *Adapter) Scan(prefix []byte) ([]KVPair, error) {
	if a.db == nil {
		return nil, nil
	}
	end := prefixUpperBound(prefix)
	it, err := a.db.Iterator(prefix, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []KVPair
	for ; it.Valid(); it.Next() {
		k := append([]byte(nil), it.Key()...)
		v := append([]byte(nil), it.Value()...)
		out = append(out, KVPair{Key: k, Value: v})
	}
	return out, it.Error()
}

// Close closes the underlying database.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// prefixUpperBound returns the smallest key that is lexicographically
// greater than every key with the given prefix, or nil if prefix is all 0xff
// (meaning "scan to the end").
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
