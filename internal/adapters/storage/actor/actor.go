// Package actor is the strongly consistent storage backend: one
// goroutine owns the data and every operation crosses its mailbox, so
// all reads observe the latest completed write by construction.
package actor

import (
	"context"
	"errors"
	"time"

	"github.com/pairwave/rendezvous/internal/core"
)

var ErrClosed = errors.New("actor store closed")

const sweepInterval = time.Minute

type opKind int

const (
	opGet opKind = iota
	opPut
	opDelete
)

type request struct {
	kind  opKind
	key   string
	value []byte
	ttl   time.Duration
	reply chan response
}

type response struct {
	value []byte
	found bool
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store implements core.Store. Construct with New, release with Close.
type Store struct {
	requests chan request
	quit     chan struct{}
	done     chan struct{}
	now      func() time.Time
}

func New() *Store {
	s := &Store{
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go s.run()
	return s
}

// run is the single execution context. Expired entries are dropped
// lazily on read and swept periodically.
func (s *Store) run() {
	defer close(s.done)
	data := make(map[string]entry)
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case req := <-s.requests:
			switch req.kind {
			case opGet:
				e, ok := data[req.key]
				if ok && !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
					delete(data, req.key)
					ok = false
				}
				if !ok {
					req.reply <- response{}
					continue
				}
				req.reply <- response{value: clone(e.value), found: true}
			case opPut:
				e := entry{value: clone(req.value)}
				if req.ttl > 0 {
					e.expiresAt = s.now().Add(req.ttl)
				}
				data[req.key] = e
				req.reply <- response{}
			case opDelete:
				delete(data, req.key)
				req.reply <- response{}
			}
		case <-sweep.C:
			now := s.now()
			for k, e := range data {
				if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
					delete(data, k)
				}
			}
		case <-s.quit:
			return
		}
	}
}

func (s *Store) Get(ctx context.Context, key string, _ core.ReadOptions) ([]byte, bool, error) {
	resp, err := s.send(ctx, request{kind: opGet, key: key})
	if err != nil {
		return nil, false, err
	}
	return resp.value, resp.found, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, opts core.WriteOptions) error {
	_, err := s.send(ctx, request{kind: opPut, key: key, value: value, ttl: opts.TTL})
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.send(ctx, request{kind: opDelete, key: key})
	return err
}

// Close stops the owning goroutine. In-flight requests complete first.
func (s *Store) Close() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.done
}

func (s *Store) send(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-s.done:
		return response{}, ErrClosed
	}
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
