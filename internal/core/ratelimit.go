package core

import (
	"context"
	"time"
)

// Bucket categories. The transport composes the full bucket key from a
// category and a client or room identity before any storage write, so
// a rejected request never partially applies.
const (
	BucketCreate   = "create"
	BucketLookup   = "lookup"
	BucketJoinIP   = "join-ip"
	BucketJoinRoom = "join-room"
	BucketPoll     = "poll"
	BucketMutation = "mutation"
)

// RateLimiter decides whether one more request in the bucket fits the
// window. Implementations: an in-memory sliding window and a redis
// counter shared across instances.
type RateLimiter interface {
	Allow(ctx context.Context, bucket string, limit int, window time.Duration) (bool, error)
}
