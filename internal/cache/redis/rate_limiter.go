package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter implements fixed-window rate limiting on Redis using
// INCR + EXPIRE. It satisfies the server middleware's RateLimiter interface.
type RateLimiter struct {
	client *Client
}

// NewRateLimiter creates a RateLimiter backed by the given client.
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether the key may take another request within the window.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := l.client.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("redis: expire %s: %w", key, err)
		}
	}
	return count <= int64(limit), nil
}
