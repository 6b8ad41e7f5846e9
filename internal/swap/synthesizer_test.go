package swap

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/platform/uniswap"
)

var (
	weth   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	module = common.HexToAddress("0x0000000000000000000000000000000000001234")
)

func newTestSynthesizer(quoteURL string) *Synthesizer {
	var client *uniswap.Client
	if quoteURL != "" {
		client = uniswap.NewClient(quoteURL, nil)
	}
	return NewSynthesizer(client, module, weth)
}

func TestNormalize(t *testing.T) {
	s := newTestSynthesizer("")

	if got := s.Normalize(domain.Eth); got != weth {
		t.Errorf("expected native sentinel to normalize to weth, got %s", got)
	}
	if got := s.Normalize(usdc); got != usdc {
		t.Errorf("expected erc20 to pass through, got %s", got)
	}
}

func TestAggregateGroupsNormalizedPools(t *testing.T) {
	s := newTestSynthesizer("")

	reqs := []domain.SwapRequirement{
		{TokenIn: usdc, TokenOut: domain.Eth, AmountOut: big.NewInt(100), DependsFragment: 0, SourceIndexes: []int{0}},
		{TokenIn: usdc, TokenOut: weth, AmountOut: big.NewInt(50), DependsFragment: 1, SourceIndexes: []int{1, 2}},
		{TokenIn: domain.Eth, TokenOut: usdc, AmountOut: big.NewInt(7), DependsFragment: 2, SourceIndexes: []int{3}},
	}

	pools := s.Aggregate(reqs)
	if len(pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(pools))
	}

	// ETH and WETH outputs land in one pool; the pool keeps the exact tokens
	// of the first requirement.
	first := pools[0]
	if first.TokenOut != domain.Eth {
		t.Errorf("expected pool tokenOut to keep the sentinel, got %s", first.TokenOut)
	}
	if first.AmountOut.Int64() != 150 {
		t.Errorf("expected aggregated amountOut 150, got %s", first.AmountOut)
	}
	if len(first.Transfers) != 2 {
		t.Errorf("expected 2 transfers, got %d", len(first.Transfers))
	}
	if got := first.SourceIndexes(); len(got) != 3 {
		t.Errorf("expected 3 source indexes, got %v", got)
	}
	if got := first.FragmentIndexes(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("unexpected fragment indexes %v", got)
	}

	if pools[1].TokenIn != domain.Eth || pools[1].AmountOut.Int64() != 7 {
		t.Errorf("unexpected second pool %+v", pools[1])
	}
}

func TestSynthesizeSkipsIdenticalTokens(t *testing.T) {
	s := newTestSynthesizer("")

	pool := &Pool{TokenIn: usdc, TokenOut: usdc, AmountOut: big.NewInt(500)}
	res, err := s.Synthesize(context.Background(), pool, common.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fragment != nil {
		t.Error("expected no fragment for identical tokens")
	}
	if res.AmountIn.Int64() != 500 {
		t.Errorf("expected amountIn to equal target output, got %s", res.AmountIn)
	}
}

func TestSynthesizeDoesNotSkipEquivalentTokens(t *testing.T) {
	// WETH in, native out: economically equivalent but not identical, so a
	// swap (the unwrap) must still be emitted.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"amountIn": "150",
			"path":     "0x01",
		})
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	pool := &Pool{TokenIn: weth, TokenOut: domain.Eth, AmountOut: big.NewInt(150)}

	res, err := s.Synthesize(context.Background(), pool, common.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fragment == nil {
		t.Fatal("expected a fragment for weth to native conversion")
	}
}

func TestSynthesizeEncodesRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("tokenOut") != weth.Hex() {
			t.Errorf("expected normalized tokenOut, got %s", q.Get("tokenOut"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"amountIn": "123456",
			"path":     "0x0102",
		})
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	taker := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	pool := &Pool{
		TokenIn:   usdc,
		TokenOut:  domain.Eth,
		AmountOut: big.NewInt(99),
		Transfers: []domain.SwapRequirement{
			{Recipient: module, AmountOut: big.NewInt(99), UnwrapToNative: true},
		},
	}

	res, err := s.Synthesize(context.Background(), pool, taker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fragment == nil {
		t.Fatal("expected a fragment")
	}
	if res.Fragment.Module != module {
		t.Errorf("expected swap module target, got %s", res.Fragment.Module)
	}
	if res.AmountIn.Int64() != 123456 {
		t.Errorf("expected amountIn 123456, got %s", res.AmountIn)
	}
	// ERC-20 input carries no native value.
	if res.Fragment.Value.Sign() != 0 {
		t.Errorf("expected zero fragment value, got %s", res.Fragment.Value)
	}
	if len(res.Fragment.Data) == 0 {
		t.Error("expected encoded call data")
	}
}

func TestSynthesizeNativeInputCarriesValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"amountIn": "777",
			"path":     "0x01",
		})
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	pool := &Pool{TokenIn: domain.Eth, TokenOut: usdc, AmountOut: big.NewInt(10)}

	res, err := s.Synthesize(context.Background(), pool, common.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fragment.Value.Int64() != 777 {
		t.Errorf("expected fragment value 777, got %s", res.Fragment.Value)
	}
}

func TestSynthesizeUnavailableRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	pool := &Pool{TokenIn: usdc, TokenOut: domain.Eth, AmountOut: big.NewInt(10)}

	_, err := s.Synthesize(context.Background(), pool, common.Address{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrSwapUnavailable) {
		t.Errorf("expected ErrSwapUnavailable, got %v", err)
	}
}
