// Package pricing implements fee cleaning, proration, and fixed-precision
// price aggregation for execution groups. All arithmetic is integer big.Int;
// no floating point is used anywhere money is counted.
package pricing

import (
	"math/big"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// CleanFees drops zero-amount and null-recipient entries. The result shares
// no big.Int pointers with the input.
func CleanFees(fees []domain.Fee) []domain.Fee {
	out := make([]domain.Fee, 0, len(fees))
	for _, f := range fees {
		if !f.Valid() {
			continue
		}
		out = append(out, domain.Fee{
			Recipient: f.Recipient,
			Amount:    new(big.Int).Set(f.Amount),
		})
	}
	return out
}

// ProrateGlobalFees computes the share of each global fee owed by an
// execution group of groupSize orders out of totalCount orders overall:
// floor(amount * groupSize / totalCount) per fee. Shares are computed once
// per group, so the total collected across groups never exceeds the nominal
// fee amount.
func ProrateGlobalFees(global []domain.Fee, groupSize, totalCount int) []domain.Fee {
	if groupSize <= 0 || totalCount <= 0 {
		return nil
	}
	out := make([]domain.Fee, 0, len(global))
	for _, f := range global {
		if !f.Valid() {
			continue
		}
		share := new(big.Int).Mul(f.Amount, big.NewInt(int64(groupSize)))
		share.Quo(share, big.NewInt(int64(totalCount)))
		if share.Sign() == 0 {
			continue
		}
		out = append(out, domain.Fee{Recipient: f.Recipient, Amount: share})
	}
	return out
}

// SumFees returns the total of all valid fee amounts.
func SumFees(fees []domain.Fee) *big.Int {
	total := new(big.Int)
	for _, f := range fees {
		if f.Valid() {
			total.Add(total, f.Amount)
		}
	}
	return total
}

// ScaleAmount prorates total by fill/of using integer division. When roundUp
// is set the result is the ceiling, which protocols require wherever
// under-payment would revert on chain. A fill covering the whole order
// returns total unchanged.
func ScaleAmount(total, fill, of *big.Int, roundUp bool) *big.Int {
	if of == nil || of.Sign() == 0 || fill.Cmp(of) == 0 {
		return new(big.Int).Set(total)
	}
	num := new(big.Int).Mul(total, fill)
	if roundUp {
		num.Add(num, new(big.Int).Sub(of, big.NewInt(1)))
	}
	return num.Quo(num, of)
}

// GroupTotal sums per-order prices plus the given fees into the aggregate
// value one execution fragment must move.
func GroupTotal(prices []*big.Int, fees []domain.Fee) *big.Int {
	total := new(big.Int)
	for _, p := range prices {
		if p != nil {
			total.Add(total, p)
		}
	}
	return total.Add(total, SumFees(fees))
}
