package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/adapter"
	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/platform/opensea"
	"github.com/alanyoungcy/nftagg/internal/platform/uniswap"
	"github.com/alanyoungcy/nftagg/internal/swap"
)

var (
	testTaker = common.HexToAddress("0x00000000000000000000000000000000000bEEF1")
	testUSDC  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func newTestRouter(t *testing.T, swaps *swap.Synthesizer) *Router {
	t.Helper()
	addrs := adapter.MainnetAddresses()
	return New(Config{
		Registry:  adapter.NewDefaultRegistry(addrs, nil),
		Swaps:     swaps,
		Addresses: addrs,
		ChainID:   1,
	})
}

func newTestSwaps(t *testing.T, handler http.HandlerFunc) *swap.Synthesizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	addrs := adapter.MainnetAddresses()
	return swap.NewSynthesizer(uniswap.NewClient(srv.URL, nil), addrs.SwapModule, addrs.WETH)
}

func quoteHandler(amountIn string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"amountIn": amountIn,
			"path":     "0x01",
		})
	}
}

func seaportListing(t *testing.T, price string, currency common.Address, tokenID int64) *domain.FillRequest {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"offerer": common.HexToAddress("0xdead").Hex(),
		"consideration": []map[string]any{
			{"recipient": common.HexToAddress("0xfee1").Hex(), "amount": price},
		},
		"signature": "0x01",
	})
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}
	return &domain.FillRequest{
		Kind:         domain.KindSeaport,
		Side:         domain.SideListing,
		Order:        raw,
		Contract:     common.HexToAddress("0x1111"),
		TokenID:      big.NewInt(tokenID),
		Currency:     currency,
		ContractKind: domain.ContractKindERC721,
	}
}

func looksRareListing(t *testing.T, price string, tokenID int64) *domain.FillRequest {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"signer":      common.HexToAddress("0xdead").Hex(),
		"price":       price,
		"strategyId":  "0",
		"orderNonce":  "1",
		"subsetNonce": "0",
		"startTime":   "1700000000",
		"endTime":     "1800000000",
		"signature":   "0x02",
	})
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}
	return &domain.FillRequest{
		Kind:         domain.KindLooksRare,
		Side:         domain.SideListing,
		Order:        raw,
		Contract:     common.HexToAddress("0x2222"),
		TokenID:      big.NewInt(tokenID),
		Currency:     domain.Eth,
		ContractKind: domain.ContractKindERC721,
	}
}

func wantSuccess(t *testing.T, got []bool, want []bool) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("success length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("success[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCompileListingFillSingleDirect(t *testing.T) {
	r := newTestRouter(t, nil)
	reqs := []*domain.FillRequest{seaportListing(t, "1000", domain.Eth, 1)}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, domain.Eth, domain.ListingFillOptions{})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}

	tx := bundle.Transactions[0]
	if tx.TxData.To != adapter.MainnetAddresses().SeaportExchange {
		t.Errorf("to = %s, want seaport exchange", tx.TxData.To)
	}
	if tx.TxData.From != testTaker {
		t.Errorf("from = %s, want taker", tx.TxData.From)
	}
	if tx.TxData.Value.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("value = %s, want 1000", tx.TxData.Value)
	}
	if len(tx.Approvals) != 0 {
		t.Errorf("approvals = %d, want none for native settlement", len(tx.Approvals))
	}
	if len(tx.OrderIndexes) != 1 || tx.OrderIndexes[0] != 0 {
		t.Errorf("orderIndexes = %v, want [0]", tx.OrderIndexes)
	}
}

func TestCompileListingFillForceRouter(t *testing.T) {
	r := newTestRouter(t, nil)
	reqs := []*domain.FillRequest{seaportListing(t, "1000", domain.Eth, 1)}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, domain.Eth, domain.ListingFillOptions{ForceRouter: true})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}
	tx := bundle.Transactions[0]
	if tx.TxData.To != adapter.MainnetAddresses().Router {
		t.Errorf("to = %s, want dispatcher", tx.TxData.To)
	}
	if tx.TxData.Value.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("value = %s, want 1000", tx.TxData.Value)
	}
}

func TestCompileListingFillMixedProtocols(t *testing.T) {
	r := newTestRouter(t, nil)
	reqs := []*domain.FillRequest{
		seaportListing(t, "1000", domain.Eth, 1),
		looksRareListing(t, "2000", 2),
	}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, domain.Eth, domain.ListingFillOptions{})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true, true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}

	tx := bundle.Transactions[0]
	if tx.TxData.To != adapter.MainnetAddresses().Router {
		t.Errorf("to = %s, want dispatcher", tx.TxData.To)
	}
	if tx.TxData.Value.Cmp(big.NewInt(3000)) != 0 {
		t.Errorf("value = %s, want 3000", tx.TxData.Value)
	}
	seen := map[int]bool{}
	for _, idx := range tx.OrderIndexes {
		seen[idx] = true
	}
	if !seen[0] || !seen[1] || len(tx.OrderIndexes) != 2 {
		t.Errorf("orderIndexes = %v, want both orders", tx.OrderIndexes)
	}
}

func TestCompileListingFillGlobalFeeProration(t *testing.T) {
	r := newTestRouter(t, nil)

	conduitA := common.HexToHash("0xaa")
	conduitB := common.HexToHash("0xbb")
	reqs := []*domain.FillRequest{
		seaportListing(t, "1000", domain.Eth, 1),
		seaportListing(t, "1000", domain.Eth, 2),
		seaportListing(t, "1000", domain.Eth, 3),
	}
	reqs[0].Conduit = conduitA
	reqs[1].Conduit = conduitA
	reqs[2].Conduit = conduitB

	feeRecipient := common.HexToAddress("0xfeef")
	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, domain.Eth, domain.ListingFillOptions{
		GlobalFees: []domain.Fee{{Recipient: feeRecipient, Amount: big.NewInt(1000)}},
	})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true, true, true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}

	// Orders are worth 3000 and the 1000 global fee prorates per partition:
	// floor(1000*2/3) + floor(1000*1/3) = 666 + 333. Rounding dust stays
	// with the taker, never overcollected.
	want := big.NewInt(3999)
	if got := bundle.Transactions[0].TxData.Value; got.Cmp(want) != 0 {
		t.Errorf("value = %s, want %s", got, want)
	}
}

func TestCompileListingFillSwapFunding(t *testing.T) {
	swaps := newTestSwaps(t, quoteHandler("555555"))
	r := newTestRouter(t, swaps)
	reqs := []*domain.FillRequest{seaportListing(t, "1000000", testUSDC, 1)}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, domain.Eth, domain.ListingFillOptions{ForceRouter: true})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}

	tx := bundle.Transactions[0]
	// The fill fragment is funded by the swap, so the only native value the
	// taker supplies is the quoted swap input.
	if tx.TxData.Value.Cmp(big.NewInt(555555)) != 0 {
		t.Errorf("value = %s, want 555555", tx.TxData.Value)
	}
	if len(tx.Approvals) != 0 {
		t.Errorf("approvals = %d, want none for native swap input", len(tx.Approvals))
	}
	if len(tx.Permits) != 0 {
		t.Errorf("permits = %d, want none when everything settles natively", len(tx.Permits))
	}

	// The dispatcher executes fragments in array order, so the swap must
	// precede the fill it funds.
	modules := dispatchModules(t, tx.TxData.Data)
	addrs := adapter.MainnetAddresses()
	if len(modules) != 2 {
		t.Fatalf("fragments = %d, want swap then fill", len(modules))
	}
	if modules[0] != addrs.SwapModule {
		t.Errorf("fragment 0 module = %s, want swap module", modules[0])
	}
	if modules[1] != addrs.SeaportModule {
		t.Errorf("fragment 1 module = %s, want seaport module", modules[1])
	}
}

// dispatchModules decodes an outer dispatcher call and returns the module
// address of each execution in array order.
func dispatchModules(t *testing.T, data []byte) []common.Address {
	t.Helper()
	method := dispatcherABI.Methods["execute"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		t.Fatal("not a dispatcher execute call")
	}
	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack dispatch: %v", err)
	}
	rv := reflect.ValueOf(vals[0])
	modules := make([]common.Address, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		modules = append(modules, rv.Index(i).FieldByName("Module").Interface().(common.Address))
	}
	return modules
}

func TestCompileListingFillSwapInputApproval(t *testing.T) {
	swaps := newTestSwaps(t, quoteHandler("123456"))
	r := newTestRouter(t, swaps)
	reqs := []*domain.FillRequest{seaportListing(t, "1000", domain.Eth, 1)}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, testUSDC, domain.ListingFillOptions{ForceRouter: true})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true})
	tx := bundle.Transactions[0]
	if tx.TxData.Value.Sign() != 0 {
		t.Errorf("value = %s, want 0 when paying from an erc20", tx.TxData.Value)
	}
	if len(tx.Approvals) != 1 {
		t.Fatalf("approvals = %d, want swap input approval", len(tx.Approvals))
	}
	ap := tx.Approvals[0]
	if ap.Token != testUSDC {
		t.Errorf("approval token = %s, want buy currency", ap.Token)
	}
	if ap.Operator != adapter.MainnetAddresses().SwapModule {
		t.Errorf("approval operator = %s, want swap module", ap.Operator)
	}

	// The swap input movement is also covered by the batch permit.
	if len(tx.Permits) != 1 {
		t.Fatalf("permits = %d, want 1", len(tx.Permits))
	}
	p := tx.Permits[0]
	if p.Owner != testTaker {
		t.Errorf("permit owner = %s, want taker", p.Owner)
	}
	if len(p.Transfers) != 1 {
		t.Fatalf("permit transfers = %d, want 1", len(p.Transfers))
	}
	tr := p.Transfers[0]
	if tr.Token != testUSDC {
		t.Errorf("transfer token = %s, want buy currency", tr.Token)
	}
	if tr.TokenID != nil {
		t.Errorf("transfer tokenId = %v, want nil for an erc20 amount", tr.TokenID)
	}
	if tr.Amount.Cmp(big.NewInt(123456)) != 0 {
		t.Errorf("transfer amount = %s, want quoted input", tr.Amount)
	}
	if tr.Recipient != adapter.MainnetAddresses().SwapModule {
		t.Errorf("transfer recipient = %s, want swap module", tr.Recipient)
	}
	if len(p.Digest) != 32 {
		t.Errorf("digest length = %d, want 32", len(p.Digest))
	}
}

func TestCompileListingFillErc20SettlementPermit(t *testing.T) {
	r := newTestRouter(t, nil)
	reqs := []*domain.FillRequest{seaportListing(t, "1000", testUSDC, 1)}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, testUSDC, domain.ListingFillOptions{ForceRouter: true})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true})
	tx := bundle.Transactions[0]
	addrs := adapter.MainnetAddresses()
	if len(tx.Approvals) != 1 || tx.Approvals[0].Operator != addrs.Router {
		t.Fatalf("approvals = %v, want one grant to the dispatcher", tx.Approvals)
	}
	if len(tx.Permits) != 1 || len(tx.Permits[0].Transfers) != 1 {
		t.Fatalf("permits = %v, want one permit with the settlement transfer", tx.Permits)
	}
	tr := tx.Permits[0].Transfers[0]
	if tr.Token != testUSDC || tr.Recipient != addrs.Router {
		t.Errorf("transfer = %+v, want the settlement total to the dispatcher", tr)
	}
	if tr.Amount.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("transfer amount = %s, want 1000", tr.Amount)
	}
}

func TestCompileListingFillSwapCascade(t *testing.T) {
	swaps := newTestSwaps(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route", http.StatusNotFound)
	})

	reqs := func() []*domain.FillRequest {
		return []*domain.FillRequest{
			seaportListing(t, "1000000", testUSDC, 1),
			seaportListing(t, "1000", domain.Eth, 2),
		}
	}

	t.Run("partial drops the dependent order", func(t *testing.T) {
		r := newTestRouter(t, swaps)
		bundle, err := r.CompileListingFill(context.Background(), reqs(), testTaker, domain.Eth, domain.ListingFillOptions{
			PartialAllowed: true,
			ForceRouter:    true,
		})
		if err != nil {
			t.Fatalf("CompileListingFill() error: %v", err)
		}
		wantSuccess(t, bundle.Success, []bool{false, true})
		if len(bundle.Transactions) != 1 {
			t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
		}
		tx := bundle.Transactions[0]
		if tx.TxData.Value.Cmp(big.NewInt(1000)) != 0 {
			t.Errorf("value = %s, want surviving order only", tx.TxData.Value)
		}
		if len(tx.OrderIndexes) != 1 || tx.OrderIndexes[0] != 1 {
			t.Errorf("orderIndexes = %v, want [1]", tx.OrderIndexes)
		}
	})

	t.Run("strict aborts the batch", func(t *testing.T) {
		r := newTestRouter(t, swaps)
		_, err := r.CompileListingFill(context.Background(), reqs(), testTaker, domain.Eth, domain.ListingFillOptions{
			ForceRouter: true,
		})
		if !errors.Is(err, domain.ErrSwapUnavailable) {
			t.Fatalf("error = %v, want ErrSwapUnavailable", err)
		}
	})
}

func TestCompileListingFillExternalCalldataUnavailable(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"maker": common.HexToAddress("0xdead").Hex(),
		"price": "1000",
	})
	blurReq := func() *domain.FillRequest {
		return &domain.FillRequest{
			Kind:         domain.KindBlur,
			Side:         domain.SideListing,
			Order:        raw,
			Contract:     common.HexToAddress("0x3333"),
			TokenID:      big.NewInt(7),
			Currency:     domain.Eth,
			ContractKind: domain.ContractKindERC721,
		}
	}

	t.Run("partial reports failure without transactions", func(t *testing.T) {
		r := newTestRouter(t, nil)
		bundle, err := r.CompileListingFill(context.Background(), []*domain.FillRequest{blurReq()}, testTaker, domain.Eth, domain.ListingFillOptions{
			PartialAllowed: true,
		})
		if err != nil {
			t.Fatalf("CompileListingFill() error: %v", err)
		}
		wantSuccess(t, bundle.Success, []bool{false})
		if len(bundle.Transactions) != 0 {
			t.Errorf("transactions = %d, want none", len(bundle.Transactions))
		}
	})

	t.Run("strict fails", func(t *testing.T) {
		r := newTestRouter(t, nil)
		_, err := r.CompileListingFill(context.Background(), []*domain.FillRequest{blurReq()}, testTaker, domain.Eth, domain.ListingFillOptions{})
		if !errors.Is(err, domain.ErrOrderUnfillable) {
			t.Fatalf("error = %v, want ErrOrderUnfillable", err)
		}
	})
}

func TestCompileListingFillSingleOrderOnly(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"seller": common.HexToAddress("0xdead").Hex(),
		"price":  "5000",
	})
	punk := func() *domain.FillRequest {
		return &domain.FillRequest{
			Kind:     domain.KindCryptoPunks,
			Side:     domain.SideListing,
			Order:    raw,
			Contract: adapter.MainnetAddresses().CryptoPunksMarket,
			TokenID:  big.NewInt(8348),
			Currency: domain.Eth,
		}
	}

	t.Run("mixing is unsupported", func(t *testing.T) {
		r := newTestRouter(t, nil)
		_, err := r.CompileListingFill(context.Background(), []*domain.FillRequest{
			punk(),
			seaportListing(t, "1000", domain.Eth, 1),
		}, testTaker, domain.Eth, domain.ListingFillOptions{})
		if !errors.Is(err, domain.ErrUnsupportedBatch) {
			t.Fatalf("error = %v, want ErrUnsupportedBatch", err)
		}
	})

	t.Run("alone fills against the market", func(t *testing.T) {
		r := newTestRouter(t, nil)
		bundle, err := r.CompileListingFill(context.Background(), []*domain.FillRequest{punk()}, testTaker, domain.Eth, domain.ListingFillOptions{})
		if err != nil {
			t.Fatalf("CompileListingFill() error: %v", err)
		}
		wantSuccess(t, bundle.Success, []bool{true})
		tx := bundle.Transactions[0]
		if tx.TxData.To != adapter.MainnetAddresses().CryptoPunksMarket {
			t.Errorf("to = %s, want punks market", tx.TxData.To)
		}
		if tx.TxData.Value.Cmp(big.NewInt(5000)) != 0 {
			t.Errorf("value = %s, want 5000", tx.TxData.Value)
		}
	})
}

// directFailAdapter qualifies for the native batch fast path but its direct
// entry point always fails, forcing the compiler onto the general route.
type directFailAdapter struct {
	module common.Address
}

func (a *directFailAdapter) Kind() domain.OrderKind { return domain.KindSeaport }
func (a *directFailAdapter) Module() common.Address { return a.module }

func (a *directFailAdapter) Traits() adapter.Traits {
	return adapter.Traits{BatchFills: true, DirectBatch: true}
}

func (a *directFailAdapter) Price(req *domain.FillRequest) (*big.Int, error) {
	return big.NewInt(1000), nil
}

func (a *directFailAdapter) BuildListingFill(reqs []*domain.FillRequest, fc adapter.FillContext) (domain.ExecutionFragment, error) {
	if fc.Direct {
		return domain.ExecutionFragment{}, fmt.Errorf("native batch entry unavailable")
	}
	value := new(big.Int)
	if fc.Currency == domain.Eth {
		value.Set(fc.Amount)
	}
	return domain.ExecutionFragment{Module: a.module, Data: []byte{0x01}, Value: value}, nil
}

func (a *directFailAdapter) BuildBidFill(req *domain.FillRequest, bc adapter.BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("unsupported")
}

func TestCompileListingFillFastPathFallsBack(t *testing.T) {
	addrs := adapter.MainnetAddresses()
	registry := adapter.NewRegistry()
	registry.Register(&directFailAdapter{module: addrs.SeaportModule})

	r := New(Config{Registry: registry, Addresses: addrs, ChainID: 1})
	reqs := []*domain.FillRequest{
		seaportListing(t, "1000", domain.Eth, 1),
		seaportListing(t, "1000", domain.Eth, 2),
	}

	bundle, err := r.CompileListingFill(context.Background(), reqs, testTaker, domain.Eth, domain.ListingFillOptions{})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true, true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}
	tx := bundle.Transactions[0]
	if tx.TxData.To != addrs.Router {
		t.Errorf("to = %s, want dispatcher after falling back", tx.TxData.To)
	}
	if tx.TxData.Value.Cmp(big.NewInt(2000)) != 0 {
		t.Errorf("value = %s, want 2000", tx.TxData.Value)
	}
}

func TestCompileListingFillResolvesPartialOrders(t *testing.T) {
	full, err := json.Marshal(map[string]any{
		"offerer": common.HexToAddress("0xdead").Hex(),
		"consideration": []map[string]any{
			{"recipient": common.HexToAddress("0xfee1").Hex(), "amount": "1000"},
		},
		"signature": "0x01",
	})
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}

	var gotUnitPrice string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUnitPrice = r.URL.Query().Get("unitPrice")
		json.NewEncoder(w).Encode(map[string]any{"order": json.RawMessage(full)})
	}))
	defer srv.Close()

	addrs := adapter.MainnetAddresses()
	r := New(Config{
		Registry:  adapter.NewDefaultRegistry(addrs, nil),
		Orders:    opensea.NewClient(srv.URL, "", 1, nil),
		Addresses: addrs,
		ChainID:   1,
	})

	req := seaportListing(t, "1000", domain.Eth, 1)
	req.Partial = true
	req.OrderID = "0xabc"

	bundle, err := r.CompileListingFill(context.Background(), []*domain.FillRequest{req}, testTaker, domain.Eth, domain.ListingFillOptions{})
	if err != nil {
		t.Fatalf("CompileListingFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true})
	if gotUnitPrice != "1000" {
		t.Errorf("unitPrice = %q, want the listing price", gotUnitPrice)
	}
}

func TestCompileListingFillEmptyBatch(t *testing.T) {
	r := newTestRouter(t, nil)
	_, err := r.CompileListingFill(context.Background(), nil, testTaker, domain.Eth, domain.ListingFillOptions{})
	if !errors.Is(err, domain.ErrNoFillsPossible) {
		t.Fatalf("error = %v, want ErrNoFillsPossible", err)
	}
}

func TestCompileListingFillIdempotent(t *testing.T) {
	compile := func() *domain.FillBundle {
		r := newTestRouter(t, nil)
		bundle, err := r.CompileListingFill(context.Background(), []*domain.FillRequest{
			seaportListing(t, "1000", domain.Eth, 1),
			looksRareListing(t, "2000", 2),
			seaportListing(t, "3000", domain.Eth, 3),
		}, testTaker, domain.Eth, domain.ListingFillOptions{})
		if err != nil {
			t.Fatalf("CompileListingFill() error: %v", err)
		}
		return bundle
	}

	a, b := compile(), compile()
	if len(a.Transactions) != len(b.Transactions) {
		t.Fatalf("transaction counts differ: %d vs %d", len(a.Transactions), len(b.Transactions))
	}
	for i := range a.Transactions {
		if !bytes.Equal(a.Transactions[i].TxData.Data, b.Transactions[i].TxData.Data) {
			t.Errorf("transaction %d call data differs between identical compiles", i)
		}
		if a.Transactions[i].TxData.Value.Cmp(b.Transactions[i].TxData.Value) != 0 {
			t.Errorf("transaction %d value differs between identical compiles", i)
		}
	}
	wantSuccess(t, a.Success, b.Success)
}
