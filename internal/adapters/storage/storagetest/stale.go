// Package storagetest provides a core.Store fake with injectable
// replication lag, so engine tests can exercise the exact hazard the
// partitioned-write protocol exists for: a read returning a snapshot
// from before a completed write.
package storagetest

import (
	"context"
	"sync"

	"github.com/pairwave/rendezvous/internal/core"
)

// StaleStore keeps the previous version of every key alongside the
// current one. After a Put, the next Lag qualifying reads of that key
// return the previous version. Freshest reads bypass the lag unless
// StaleFreshest is set, mirroring the "freshest-effort, not guaranteed"
// contract of the replicated backend.
type StaleStore struct {
	mu            sync.Mutex
	current       map[string][]byte
	previous      map[string][]byte
	remaining     map[string]int
	Lag           int
	StaleFreshest bool
}

func NewStale() *StaleStore {
	return &StaleStore{
		current:   make(map[string][]byte),
		previous:  make(map[string][]byte),
		remaining: make(map[string]int),
	}
}

func (s *StaleStore) Get(_ context.Context, key string, opts core.ReadOptions) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lagging := s.remaining[key] > 0 && (!opts.Freshest || s.StaleFreshest)
	if lagging {
		s.remaining[key]--
		prev, ok := s.previous[key]
		return clone(prev), ok, nil
	}
	val, ok := s.current[key]
	return clone(val), ok, nil
}

func (s *StaleStore) Put(_ context.Context, key string, value []byte, _ core.WriteOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.current[key]; ok {
		s.previous[key] = old
		s.remaining[key] = s.Lag
	}
	s.current[key] = clone(value)
	return nil
}

func (s *StaleStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current, key)
	delete(s.previous, key)
	delete(s.remaining, key)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
