// Package uniswap implements the liquidity-routing client used by the swap
// synthesizer. The routing provider is a black box returning the best
// available route and the input amount it requires for a target output.
package uniswap

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

// Quote is a route achieving at least the requested output. Path is the
// abi-encoded hop path the swap module executes; AmountIn is the maximum
// input the route may consume.
type Quote struct {
	AmountIn *big.Int      `json:"amountIn"`
	Path     hexutil.Bytes `json:"path"`
}

// QuoteCache caches quotes for a short TTL keyed by (tokenIn, tokenOut,
// amountOut). Implemented by the redis cache package; nil disables caching.
type QuoteCache interface {
	GetQuote(ctx context.Context, key string) (*Quote, error)
	SetQuote(ctx context.Context, key string, q *Quote) error
}

// Client is the REST client for the routing provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      QuoteCache
}

// NewClient creates a new routing client. cache may be nil.
func NewClient(baseURL string, cache QuoteCache) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

type quoteResponse struct {
	AmountIn string        `json:"amountIn"`
	Path     hexutil.Bytes `json:"path"`
	Message  string        `json:"message,omitempty"`
}

// QuoteExactOutput returns a route producing at least amountOut units of
// tokenOut for tokenIn. No route, insufficient liquidity, and stale quotes
// all surface as domain.ErrSwapUnavailable so callers can treat them as one
// recoverable condition.
func (c *Client) QuoteExactOutput(ctx context.Context, tokenIn, tokenOut common.Address, amountOut *big.Int) (*Quote, error) {
	key := fmt.Sprintf("%s:%s:%s", tokenIn.Hex(), tokenOut.Hex(), amountOut.String())
	if c.cache != nil {
		if q, err := c.cache.GetQuote(ctx, key); err == nil {
			return q, nil
		}
	}

	q := url.Values{}
	q.Set("tokenIn", tokenIn.Hex())
	q.Set("tokenOut", tokenOut.Hex())
	q.Set("amountOut", amountOut.String())

	u := c.baseURL + "/v1/quote?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("uniswap: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("uniswap: quote: %w: %v", domain.ErrSwapUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusGone:
		// No route, insufficient liquidity, stale quote.
		return nil, fmt.Errorf("uniswap: quote %s->%s: %w", tokenIn.Hex(), tokenOut.Hex(), domain.ErrSwapUnavailable)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("uniswap: quote: status %d: %s", resp.StatusCode, body)
	}

	var dto quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("uniswap: decode quote: %w", err)
	}
	amountIn, ok := new(big.Int).SetString(dto.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("uniswap: malformed amountIn %q: %w", dto.AmountIn, domain.ErrSwapUnavailable)
	}
	if len(dto.Path) == 0 {
		return nil, fmt.Errorf("uniswap: empty route path: %w", domain.ErrSwapUnavailable)
	}

	quote := &Quote{AmountIn: amountIn, Path: dto.Path}
	if c.cache != nil {
		_ = c.cache.SetQuote(ctx, key, quote)
	}
	return quote, nil
}
