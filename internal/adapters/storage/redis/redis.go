// Package redisstore is the replicated storage backend. Plain reads go
// to a replica and may lag the primary; ReadOptions.Freshest routes the
// read to the primary instead, which narrows the staleness window but
// does not eliminate it (callers stay correct via key ownership).
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/pairwave/rendezvous/internal/core"
)

// Store implements core.Store over a primary client and an optional
// replica client. With no replica every read hits the primary.
type Store struct {
	primary *redis.Client
	replica *redis.Client
}

func New(primary, replica *redis.Client) *Store {
	if primary == nil {
		panic("redisstore: primary client is required")
	}
	return &Store{primary: primary, replica: replica}
}

func (s *Store) Get(ctx context.Context, key string, opts core.ReadOptions) ([]byte, bool, error) {
	client := s.replica
	if opts.Freshest || client == nil {
		client = s.primary
	}
	val, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, opts core.WriteOptions) error {
	if err := s.primary.Set(ctx, key, value, opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.primary.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks the primary; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.primary.Ping(ctx).Err()
}
