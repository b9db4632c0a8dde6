// Package redis implements the Redis-backed event dedup store. The platform
// redelivers webhook events on slow responses, so processed event ids are
// remembered for a TTL and checked with an atomic SETNX.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEventIDEmpty is returned when the event id is empty.
var ErrEventIDEmpty = errors.New("dedup: event ID cannot be empty")

const dedupKeyPrefix = "checkin-hub:event:"

// DedupStore marks webhook event ids as seen across process restarts.
type DedupStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupStore creates a dedup store from a Redis URL.
func NewDedupStore(ctx context.Context, redisURL string, ttl time.Duration) (*DedupStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &DedupStore{client: client, ttl: ttl}, nil
}

// Seen atomically marks the event id as processed and reports whether it had
// already been marked. The first caller gets false, every redelivery true.
func (s *DedupStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, ErrEventIDEmpty
	}

	ok, err := s.client.SetNX(ctx, dedupKeyPrefix+eventID, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: setnx: %w", err)
	}

	// SetNX succeeded means the key was fresh, so the event is new.
	return !ok, nil
}

// Close releases the underlying client.
func (s *DedupStore) Close() error {
	return s.client.Close()
}
