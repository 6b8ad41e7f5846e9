package router

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/adapter"
	"github.com/alanyoungcy/nftagg/internal/domain"
)

func seaportBid(t *testing.T, price string, contract common.Address, tokenID int64) *domain.FillRequest {
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
		Side:         domain.SideBid,
		Order:        raw,
		Contract:     contract,
		TokenID:      big.NewInt(tokenID),
		Currency:     adapter.MainnetAddresses().WETH,
		ContractKind: domain.ContractKindERC721,
	}
}

func TestCompileBidFillSingleDirectTransfer(t *testing.T) {
	r := newTestRouter(t, nil)
	contract := common.HexToAddress("0x1111")
	reqs := []*domain.FillRequest{seaportBid(t, "1000", contract, 1)}

	bundle, err := r.CompileBidFill(context.Background(), reqs, testTaker, domain.BidFillOptions{})
	if err != nil {
		t.Fatalf("CompileBidFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}

	// A lone bid rides the NFT's own safe transfer to the module, so no
	// approval or permit is needed and the transaction targets the token.
	tx := bundle.Transactions[0]
	if tx.TxData.To != contract {
		t.Errorf("to = %s, want nft contract %s", tx.TxData.To, contract)
	}
	if tx.TxData.Value.Sign() != 0 {
		t.Errorf("value = %s, want 0", tx.TxData.Value)
	}
	if len(tx.Approvals) != 0 {
		t.Errorf("approvals = %d, want none", len(tx.Approvals))
	}
	if len(tx.Permits) != 0 {
		t.Errorf("permits = %d, want none", len(tx.Permits))
	}
	if len(tx.OrderIndexes) != 1 || tx.OrderIndexes[0] != 0 {
		t.Errorf("orderIndexes = %v, want [0]", tx.OrderIndexes)
	}
}

func TestCompileBidFillBatchUsesPermit(t *testing.T) {
	r := newTestRouter(t, nil)
	addrs := adapter.MainnetAddresses()
	contract := common.HexToAddress("0x1111")
	reqs := []*domain.FillRequest{
		seaportBid(t, "1000", contract, 1),
		seaportBid(t, "2000", contract, 2),
	}

	bundle, err := r.CompileBidFill(context.Background(), reqs, testTaker, domain.BidFillOptions{})
	if err != nil {
		t.Fatalf("CompileBidFill() error: %v", err)
	}
	wantSuccess(t, bundle.Success, []bool{true, true})
	if len(bundle.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(bundle.Transactions))
	}

	tx := bundle.Transactions[0]
	if tx.TxData.To != addrs.Router {
		t.Errorf("to = %s, want dispatcher", tx.TxData.To)
	}
	// Both bids settle through the same module on the same collection, so
	// the operator grant dedupes to one.
	if len(tx.Approvals) != 1 {
		t.Fatalf("approvals = %d, want 1 after dedupe", len(tx.Approvals))
	}
	if tx.Approvals[0].Token != contract {
		t.Errorf("approval token = %s, want %s", tx.Approvals[0].Token, contract)
	}
	if tx.Approvals[0].Operator != addrs.SeaportModule {
		t.Errorf("approval operator = %s, want seaport module", tx.Approvals[0].Operator)
	}

	if len(tx.Permits) != 1 {
		t.Fatalf("permits = %d, want 1", len(tx.Permits))
	}
	p := tx.Permits[0]
	if p.Owner != testTaker {
		t.Errorf("permit owner = %s, want taker", p.Owner)
	}
	if p.Spender != addrs.Router {
		t.Errorf("permit spender = %s, want dispatcher", p.Spender)
	}
	if len(p.Transfers) != 2 {
		t.Errorf("permit transfers = %d, want 2", len(p.Transfers))
	}
	if len(p.Digest) != 32 {
		t.Errorf("digest length = %d, want 32", len(p.Digest))
	}
	if p.Deadline == nil || p.Deadline.Sign() <= 0 {
		t.Errorf("deadline = %v, want a future timestamp", p.Deadline)
	}
}

func TestCompileBidFillForcePermit(t *testing.T) {
	r := newTestRouter(t, nil)
	contract := common.HexToAddress("0x1111")
	reqs := []*domain.FillRequest{seaportBid(t, "1000", contract, 1)}

	bundle, err := r.CompileBidFill(context.Background(), reqs, testTaker, domain.BidFillOptions{ForcePermit: true})
	if err != nil {
		t.Fatalf("CompileBidFill() error: %v", err)
	}
	tx := bundle.Transactions[0]
	if tx.TxData.To != adapter.MainnetAddresses().Router {
		t.Errorf("to = %s, want dispatcher when permit is forced", tx.TxData.To)
	}
	if len(tx.Approvals) != 1 || len(tx.Permits) != 1 {
		t.Errorf("approvals/permits = %d/%d, want 1/1", len(tx.Approvals), len(tx.Permits))
	}
}

func TestCompileBidFillPartialFailures(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"maker": common.HexToAddress("0xdead").Hex(),
		"price": "1000",
	})
	blurBid := func() *domain.FillRequest {
		return &domain.FillRequest{
			Kind:         domain.KindBlur,
			Side:         domain.SideBid,
			Order:        raw,
			Contract:     common.HexToAddress("0x3333"),
			TokenID:      big.NewInt(7),
			Currency:     adapter.MainnetAddresses().WETH,
			ContractKind: domain.ContractKindERC721,
		}
	}

	t.Run("partial keeps siblings", func(t *testing.T) {
		r := newTestRouter(t, nil)
		bundle, err := r.CompileBidFill(context.Background(), []*domain.FillRequest{
			blurBid(),
			seaportBid(t, "1000", common.HexToAddress("0x1111"), 1),
		}, testTaker, domain.BidFillOptions{PartialAllowed: true})
		if err != nil {
			t.Fatalf("CompileBidFill() error: %v", err)
		}
		wantSuccess(t, bundle.Success, []bool{false, true})
	})

	t.Run("strict aborts", func(t *testing.T) {
		r := newTestRouter(t, nil)
		_, err := r.CompileBidFill(context.Background(), []*domain.FillRequest{
			blurBid(),
			seaportBid(t, "1000", common.HexToAddress("0x1111"), 1),
		}, testTaker, domain.BidFillOptions{})
		if !errors.Is(err, domain.ErrOrderUnfillable) {
			t.Fatalf("error = %v, want ErrOrderUnfillable", err)
		}
	})
}

func TestCompileBidFillEmptyBatch(t *testing.T) {
	r := newTestRouter(t, nil)
	_, err := r.CompileBidFill(context.Background(), nil, testTaker, domain.BidFillOptions{})
	if !errors.Is(err, domain.ErrNoFillsPossible) {
		t.Fatalf("error = %v, want ErrNoFillsPossible", err)
	}
}
