// Package blur implements the call-data generation client for Blur fills.
// Blur's exchange rejects calls routed through intermediary contracts, so
// fill transactions are generated server-side and submitted by the taker
// directly.
package blur

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// Item is one order the generation request should cover.
type Item struct {
	Contract common.Address
	TokenID  *big.Int
	Price    *big.Int
}

// PathItem identifies one (contract, tokenId) pair a returned transaction
// covers. Responses are matched back to requests by these pairs.
type PathItem struct {
	Contract common.Address `json:"contract"`
	TokenID  *big.Int       `json:"tokenId"`
}

// CalldataBundle is one ready-to-send transaction returned by the service.
type CalldataBundle struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *big.Int       `json:"value"`
	Path  []PathItem     `json:"path"`
}

// Client is the REST client for the call-data generation service.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewClient creates a new generation-service client.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type calldataResponse struct {
	Bundles []bundleDTO `json:"bundles"`
	Message string      `json:"message,omitempty"`
}

type bundleDTO struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value string         `json:"value"`
	Path  []pathDTO      `json:"path"`
}

type pathDTO struct {
	Contract common.Address `json:"contract"`
	TokenID  string         `json:"tokenId"`
}

// FetchCalldata requests fill transactions for the given items on behalf of
// taker. The service may cover any subset of the requested items; callers
// must match bundles back by path.
func (c *Client) FetchCalldata(ctx context.Context, taker common.Address, items []Item) ([]CalldataBundle, error) {
	contracts := make([]string, 0, len(items))
	tokenIDs := make([]string, 0, len(items))
	prices := make([]string, 0, len(items))
	for _, it := range items {
		contracts = append(contracts, it.Contract.Hex())
		tokenIDs = append(tokenIDs, it.TokenID.String())
		prices = append(prices, it.Price.String())
	}

	q := url.Values{}
	q.Set("taker", taker.Hex())
	q.Set("contracts", strings.Join(contracts, ","))
	q.Set("tokenIds", strings.Join(tokenIDs, ","))
	q.Set("prices", strings.Join(prices, ","))

	u := c.baseURL + "/v1/fills?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("blur: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("blur: fetch calldata: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("blur: fetch calldata: %w", domain.ErrUnauthorized)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("blur: fetch calldata: %w", domain.ErrRateLimited)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("blur: fetch calldata: status %d: %s", resp.StatusCode, body)
	}

	var dto calldataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("blur: decode response: %w", err)
	}

	bundles := make([]CalldataBundle, 0, len(dto.Bundles))
	for _, b := range dto.Bundles {
		value, ok := new(big.Int).SetString(b.Value, 10)
		if !ok {
			return nil, fmt.Errorf("blur: malformed bundle value %q", b.Value)
		}
		path := make([]PathItem, 0, len(b.Path))
		for _, p := range b.Path {
			id, ok := new(big.Int).SetString(p.TokenID, 10)
			if !ok {
				return nil, fmt.Errorf("blur: malformed path tokenId %q", p.TokenID)
			}
			path = append(path, PathItem{Contract: p.Contract, TokenID: id})
		}
		bundles = append(bundles, CalldataBundle{To: b.To, Data: b.Data, Value: value, Path: path})
	}
	return bundles, nil
}
