package opensea

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

func partialRequest() *domain.FillRequest {
	return &domain.FillRequest{
		Kind:     domain.KindSeaport,
		Side:     domain.SideListing,
		Contract: common.HexToAddress("0x1111"),
		TokenID:  big.NewInt(42),
		Partial:  true,
		OrderID:  "0xabc",
	}
}

func TestFetchFullOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("orderHash"); got != "0xabc" {
			t.Errorf("orderHash = %q, want 0xabc", got)
		}
		if got := r.URL.Query().Get("unitPrice"); got != "1000" {
			t.Errorf("unitPrice = %q, want 1000", got)
		}
		if got := r.Header.Get("X-API-KEY"); got != "k" {
			t.Errorf("api key header = %q, want k", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"order":     map[string]any{"offerer": common.HexToAddress("0xdead").Hex()},
			"extension": "0x0102",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 1, nil)
	order, ext, err := c.FetchFullOrder(context.Background(), partialRequest(), common.HexToAddress("0xbeef"), big.NewInt(1000))
	if err != nil {
		t.Fatalf("FetchFullOrder() error: %v", err)
	}
	if len(order) == 0 {
		t.Error("empty order payload")
	}
	if len(ext) != 2 {
		t.Errorf("extension = %x, want 2 bytes", ext)
	}
}

func TestFetchFullOrderStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", 1, nil)
			_, _, err := c.FetchFullOrder(context.Background(), partialRequest(), common.Address{}, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

type stubCache struct {
	order json.RawMessage
	ext   hexutil.Bytes
	sets  int
}

func (s *stubCache) GetOrder(ctx context.Context, orderID string) (json.RawMessage, hexutil.Bytes, error) {
	if s.order == nil {
		return nil, nil, domain.ErrNotFound
	}
	return s.order, s.ext, nil
}

func (s *stubCache) SetOrder(ctx context.Context, orderID string, order json.RawMessage, extension hexutil.Bytes) error {
	s.order, s.ext = order, extension
	s.sets++
	return nil
}

func TestFetchFullOrderUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"offerer": common.HexToAddress("0xdead").Hex()},
		})
	}))
	defer srv.Close()

	cache := &stubCache{}
	c := NewClient(srv.URL, "", 1, cache)

	for i := 0; i < 2; i++ {
		if _, _, err := c.FetchFullOrder(context.Background(), partialRequest(), common.Address{}, nil); err != nil {
			t.Fatalf("FetchFullOrder() error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 with a warm cache", calls)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
}

func TestFetchSignedExtensionRequiresExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"offerer": common.HexToAddress("0xdead").Hex()},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 1, nil)
	if _, err := c.FetchSignedExtension(context.Background(), partialRequest(), common.Address{}); err == nil {
		t.Fatal("expected error when no extension is returned")
	}
}
