// Package core defines the ports the room engine depends on. Adapters
// implement them; the engine never sees a concrete backend.
package core

import (
	"context"
	"time"
)

// ReadOptions tunes a single Get. Freshest asks the backend for the
// least stale view it can provide. It is a hint: an eventually
// consistent backend honors it best-effort, so callers must stay
// correct when the returned value is still old.
type ReadOptions struct {
	Freshest bool
}

// WriteOptions tunes a single Put. A zero TTL means no expiry.
type WriteOptions struct {
	TTL time.Duration
}

// Store is a key-addressed byte store. Two real backends exist: a
// single-goroutine strongly consistent store and a replicated store
// whose reads may lag writes by an unbounded but short interval. Every
// write is a complete replacement of one key; there is no partial
// update and no cross-key transaction.
type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string, opts ReadOptions) ([]byte, bool, error)

	// Put replaces the value under key.
	Put(ctx context.Context, key string, value []byte, opts WriteOptions) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
