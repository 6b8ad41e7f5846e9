package pricing

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestCleanFees(t *testing.T) {
	fees := []domain.Fee{
		{Recipient: addr(1), Amount: big.NewInt(100)},
		{Recipient: common.Address{}, Amount: big.NewInt(50)}, // null recipient
		{Recipient: addr(2), Amount: big.NewInt(0)},           // zero amount
		{Recipient: addr(3), Amount: nil},                     // nil amount
		{Recipient: addr(4), Amount: big.NewInt(25)},
	}

	out := CleanFees(fees)
	if len(out) != 2 {
		t.Fatalf("expected 2 fees, got %d", len(out))
	}
	if out[0].Recipient != addr(1) || out[0].Amount.Int64() != 100 {
		t.Errorf("unexpected first fee: %+v", out[0])
	}
	if out[1].Recipient != addr(4) || out[1].Amount.Int64() != 25 {
		t.Errorf("unexpected second fee: %+v", out[1])
	}

	// Amounts must not share pointers with the input.
	out[0].Amount.SetInt64(999)
	if fees[0].Amount.Int64() != 100 {
		t.Error("CleanFees aliased an input amount")
	}
}

func TestProrateGlobalFees(t *testing.T) {
	global := []domain.Fee{{Recipient: addr(9), Amount: big.NewInt(1000)}}

	tests := []struct {
		name       string
		groupSize  int
		totalCount int
		want       int64
	}{
		{"whole group", 3, 3, 1000},
		{"one of three", 1, 3, 333},
		{"two of three", 2, 3, 666},
		{"one of seven", 1, 7, 142},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ProrateGlobalFees(global, tt.groupSize, tt.totalCount)
			if len(out) != 1 {
				t.Fatalf("expected 1 fee, got %d", len(out))
			}
			if got := out[0].Amount.Int64(); got != tt.want {
				t.Errorf("expected share %d, got %d", tt.want, got)
			}
		})
	}
}

func TestProrateGlobalFeesNeverOvercollects(t *testing.T) {
	global := []domain.Fee{{Recipient: addr(9), Amount: big.NewInt(997)}}

	// Split 7 orders into partitions of every possible size mix and check
	// that the summed shares never exceed the nominal amount.
	partitions := [][]int{
		{7},
		{1, 6},
		{2, 5},
		{3, 4},
		{1, 1, 5},
		{1, 2, 4},
		{1, 1, 1, 4},
		{1, 1, 1, 1, 1, 1, 1},
	}
	for _, sizes := range partitions {
		total := new(big.Int)
		for _, size := range sizes {
			out := ProrateGlobalFees(global, size, 7)
			total.Add(total, SumFees(out))
		}
		if total.Cmp(big.NewInt(997)) > 0 {
			t.Errorf("partition %v collected %s, more than nominal 997", sizes, total)
		}
	}
}

func TestProrateGlobalFeesEdgeCases(t *testing.T) {
	global := []domain.Fee{{Recipient: addr(9), Amount: big.NewInt(10)}}

	if out := ProrateGlobalFees(global, 0, 3); out != nil {
		t.Errorf("expected nil for zero group size, got %v", out)
	}
	if out := ProrateGlobalFees(global, 1, 0); out != nil {
		t.Errorf("expected nil for zero total, got %v", out)
	}
	// Share rounding to zero drops the fee entirely.
	if out := ProrateGlobalFees(global, 1, 100); len(out) != 0 {
		t.Errorf("expected zero-share fee to be dropped, got %v", out)
	}
}

func TestScaleAmount(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		fill    int64
		of      int64
		roundUp bool
		want    int64
	}{
		{"full fill unchanged", 1000, 5, 5, true, 1000},
		{"half rounded up", 1001, 1, 2, true, 501},
		{"half rounded down", 1001, 1, 2, false, 500},
		{"third rounded up", 100, 1, 3, true, 34},
		{"third rounded down", 100, 1, 3, false, 33},
		{"zero denominator returns total", 1000, 1, 0, true, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleAmount(big.NewInt(tt.total), big.NewInt(tt.fill), big.NewInt(tt.of), tt.roundUp)
			if got.Int64() != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got.Int64())
			}
		})
	}
}

func TestGroupTotal(t *testing.T) {
	prices := []*big.Int{big.NewInt(100), big.NewInt(250), nil}
	fees := []domain.Fee{
		{Recipient: addr(1), Amount: big.NewInt(30)},
		{Recipient: common.Address{}, Amount: big.NewInt(999)}, // invalid, ignored
	}

	got := GroupTotal(prices, fees)
	if got.Int64() != 380 {
		t.Errorf("expected 380, got %d", got.Int64())
	}
}
