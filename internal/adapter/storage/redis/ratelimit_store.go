package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements ports.RateLimiter with counters backed by
// Redis, so limits hold across server restarts and replicas.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRateLimitStore creates a Redis-backed rate limiter. limit is the
// maximum number of messages allowed per window.
func NewRateLimitStore(client *goredis.Client, limit int64, window time.Duration) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
		limit:  limit,
		window: window,
	}
}

// Allow checks if a message is within the rate limit.
// It uses a fixed-window counter: INCR + EXPIRE on a key scoped by windowID.
// windowID is computed as time / windowDuration to form discrete windows.
func (s *RateLimitStore) Allow(ctx context.Context, key string) (bool, error) {
	windowID := time.Now().Unix() / int64(s.window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	// Increment counter atomically
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit incr: %w", err)
	}

	// Set expiry only on first increment (new window)
	if count == 1 {
		s.client.Expire(ctx, redisKey, s.window+time.Second) // +1s safety margin
	}

	return count <= s.limit, nil
}
