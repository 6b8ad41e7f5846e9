package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/platform/uniswap"
)

// QuoteCache caches exact-output swap quotes. Quotes go stale with pool
// state so the TTL stays short.
type QuoteCache struct {
	client *Client
	ttl    time.Duration
}

// NewQuoteCache creates a quote cache with the given TTL.
func NewQuoteCache(client *Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &QuoteCache{client: client, ttl: ttl}
}

func quoteKey(key string) string {
	return fmt.Sprintf("nftagg:quote:%s", key)
}

// GetQuote returns the cached quote for the route key, or
// domain.ErrNotFound when the entry is absent.
func (c *QuoteCache) GetQuote(ctx context.Context, key string) (*uniswap.Quote, error) {
	raw, err := c.client.rdb.Get(ctx, quoteKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis: quote %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("redis: get quote %s: %w", key, err)
	}

	var q uniswap.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("redis: decode quote %s: %w", key, err)
	}
	return &q, nil
}

// SetQuote stores the quote under the route key.
func (c *QuoteCache) SetQuote(ctx context.Context, key string, q *uniswap.Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("redis: encode quote %s: %w", key, err)
	}
	if err := c.client.rdb.Set(ctx, quoteKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", key, err)
	}
	return nil
}
