package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// OrderCache caches resolved off-chain order payloads keyed by order id.
// Entries carry a short TTL since signed payloads are taker-bound and
// expire quickly upstream.
type OrderCache struct {
	client *Client
	ttl    time.Duration
}

type cachedOrder struct {
	Order     json.RawMessage `json:"order"`
	Extension hexutil.Bytes   `json:"extension,omitempty"`
}

// NewOrderCache creates an order cache with the given TTL.
func NewOrderCache(client *Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &OrderCache{client: client, ttl: ttl}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("nftagg:order:%s", orderID)
}

// GetOrder returns the cached order payload and signed extension for the
// order id, or domain.ErrNotFound when the entry is absent.
func (c *OrderCache) GetOrder(ctx context.Context, orderID string) (json.RawMessage, hexutil.Bytes, error) {
	raw, err := c.client.rdb.Get(ctx, orderKey(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, fmt.Errorf("redis: order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("redis: get order %s: %w", orderID, err)
	}

	var entry cachedOrder
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, nil, fmt.Errorf("redis: decode order %s: %w", orderID, err)
	}
	return entry.Order, entry.Extension, nil
}

// SetOrder stores the order payload and extension under the order id.
func (c *OrderCache) SetOrder(ctx context.Context, orderID string, order json.RawMessage, extension hexutil.Bytes) error {
	raw, err := json.Marshal(cachedOrder{Order: order, Extension: extension})
	if err != nil {
		return fmt.Errorf("redis: encode order %s: %w", orderID, err)
	}
	if err := c.client.rdb.Set(ctx, orderKey(orderID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set order %s: %w", orderID, err)
	}
	return nil
}
