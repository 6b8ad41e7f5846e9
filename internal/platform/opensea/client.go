// Package opensea implements the order-data service client used to complete
// partial orders and fetch protocol-required signed extensions at fill time.
package opensea

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// OrderCache caches resolved full orders keyed by order id. Implemented by
// the redis cache package; a nil cache disables caching.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID string) (json.RawMessage, hexutil.Bytes, error)
	SetOrder(ctx context.Context, orderID string, order json.RawMessage, extension hexutil.Bytes) error
}

// Client is the REST client for the order-data service.
type Client struct {
	baseURL    string
	apiKey     string
	chainID    int
	httpClient *http.Client
	cache      OrderCache
}

// NewClient creates a new order-data client. cache may be nil.
func NewClient(baseURL, apiKey string, chainID int, cache OrderCache) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		chainID: chainID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

// fullOrderResponse is the service's wire format.
type fullOrderResponse struct {
	Order     json.RawMessage `json:"order"`
	Extension hexutil.Bytes   `json:"extension,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// FetchFullOrder retrieves the complete order object and any extension bytes
// for a partial order. unitPrice is included for listings and may be nil for
// bids.
func (c *Client) FetchFullOrder(ctx context.Context, req *domain.FillRequest, taker common.Address, unitPrice *big.Int) (json.RawMessage, hexutil.Bytes, error) {
	// Cache misses and cache trouble both fall through to the fetch.
	if c.cache != nil {
		if order, ext, err := c.cache.GetOrder(ctx, req.OrderID); err == nil {
			return order, ext, nil
		}
	}

	q := url.Values{}
	q.Set("contract", req.Contract.Hex())
	q.Set("tokenId", req.TokenID.String())
	q.Set("orderHash", req.OrderID)
	q.Set("taker", taker.Hex())
	q.Set("chainId", fmt.Sprintf("%d", c.chainID))
	q.Set("protocolVersion", string(req.Kind))
	if unitPrice != nil {
		q.Set("unitPrice", unitPrice.String())
	}

	var resp fullOrderResponse
	if err := c.get(ctx, "/v1/orders/fulfillment", q, &resp); err != nil {
		return nil, nil, err
	}
	if len(resp.Order) == 0 {
		return nil, nil, fmt.Errorf("opensea: order %s: empty fulfillment: %s", req.OrderID, resp.Message)
	}

	if c.cache != nil {
		_ = c.cache.SetOrder(ctx, req.OrderID, resp.Order, resp.Extension)
	}
	return resp.Order, resp.Extension, nil
}

// FetchSignedExtension retrieves only the signed extension bytes for an
// order. It satisfies the adapter.ExtensionFetcher interface.
func (c *Client) FetchSignedExtension(ctx context.Context, req *domain.FillRequest, taker common.Address) (hexutil.Bytes, error) {
	_, ext, err := c.FetchFullOrder(ctx, req, taker, nil)
	if err != nil {
		return nil, err
	}
	if len(ext) == 0 {
		return nil, fmt.Errorf("opensea: order %s: no signed extension returned", req.OrderID)
	}
	return ext, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("opensea: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("opensea: %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("opensea: %s: %w", path, domain.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("opensea: %s: %w", path, domain.ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("opensea: %s: %w", path, domain.ErrRateLimited)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("opensea: %s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("opensea: %s: decode response: %w", path, err)
	}
	return nil
}
