// Package usage persists token usage counters in Redis/Valkey hashes.
package usage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
)

// Hash field names for persisted counters.
const (
	fieldRequests         = "requests"
	fieldPromptTokens     = "prompt_tokens"
	fieldCompletionTokens = "completion_tokens"
	fieldTotalTokens      = "total_tokens"
)

// store is the consumer interface for counter operations (ISP).
type store interface {
	HIncrByMulti(ctx context.Context, key string, deltas map[string]int64) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store implements the tracker's CounterStore on top of DB (HINCRBY + EXPIRE NX).
type Store struct {
	store    store
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a usage store.
// dailyTTL is the TTL for daily keys (recommended: 48h).
// monthTTL is the TTL for monthly keys (recommended: 62 days).
func New(s store, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:    s,
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
	}
}

// Add increments the counters stored at key and sets TTL.
func (s *Store) Add(ctx context.Context, key string, c domusage.Counters) error {
	deltas := map[string]int64{
		fieldRequests:         c.Requests,
		fieldPromptTokens:     c.PromptTokens,
		fieldCompletionTokens: c.CompletionTokens,
		fieldTotalTokens:      c.TotalTokens,
	}
	if err := s.store.HIncrByMulti(ctx, key, deltas); err != nil {
		return fmt.Errorf("usage HINCRBY %s: %w", key, err)
	}

	// Set TTL only if the key has no expiry yet (NX: not reset on repeat).
	if err := s.store.Expire(ctx, key, s.ttlForKey(key), true); err != nil {
		return fmt.Errorf("usage EXPIRE %s: %w", key, err)
	}

	return nil
}

// Load returns the counters stored at key. A missing key yields zero counters.
func (s *Store) Load(ctx context.Context, key string) (domusage.Counters, error) {
	m, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return domusage.Counters{}, fmt.Errorf("usage HGETALL %s: %w", key, err)
	}

	var c domusage.Counters
	for field, dst := range map[string]*int64{
		fieldRequests:         &c.Requests,
		fieldPromptTokens:     &c.PromptTokens,
		fieldCompletionTokens: &c.CompletionTokens,
		fieldTotalTokens:      &c.TotalTokens,
	} {
		raw, ok := m[field]
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domusage.Counters{}, fmt.Errorf("usage HGETALL %s field %s: %w", key, field, err)
		}
		*dst = v
	}
	return c, nil
}

// ttlForKey determines TTL based on the key format (daily vs monthly).
func (s *Store) ttlForKey(key string) time.Duration {
	// Keys follow the pattern {prefix}usage:{model}:daily:... or :monthly:...
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthTTL
}
