package db

import (
	"context"
	"time"
)

// Store is the database facade used by the usage repository.
type Store interface {
	Pinger
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CounterStore keeps integer counters in hash fields.
type CounterStore interface {
	// HIncrByMulti increments several fields of one hash in a single round-trip.
	HIncrByMulti(ctx context.Context, key string, deltas map[string]int64) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// Expire sets TTL on a key. When nx is true the TTL is only set if the key has none.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
