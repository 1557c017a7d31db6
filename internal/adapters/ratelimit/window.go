// Package ratelimit provides the two RateLimiter adapters: an
// in-process sliding window for single-instance deployments and a
// redis counter shared across instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is a sliding-window limiter keyed by bucket string. Suitable
// when the service runs as one process; with multiple replicas use the
// redis limiter so all of them share counters.
type Window struct {
	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

func NewWindow() *Window {
	return &Window{history: make(map[string][]time.Time), now: time.Now}
}

func (w *Window) Allow(_ context.Context, bucket string, limit int, window time.Duration) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	windowStart := now.Add(-window)

	attempts := w.history[bucket]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= limit {
		w.history[bucket] = fresh
		return false, nil
	}

	w.history[bucket] = append(fresh, now)
	return true, nil
}
