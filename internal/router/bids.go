package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/adapter"
	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/pricing"
)

// CompileBidFill compiles a batch of bid accepts. Bids transfer NFTs from
// the taker, so the side artifacts are operator grants and an NFT-transfer
// permit rather than currency approvals. Every bid produces its own fragment;
// accept signatures are always per-order.
func (r *Router) CompileBidFill(ctx context.Context, reqs []*domain.FillRequest, taker common.Address, opts domain.BidFillOptions) (*domain.FillBundle, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("router: empty batch: %w", domain.ErrNoFillsPossible)
	}
	for i, req := range reqs {
		req.OriginalIndex = i
	}
	tracker := newSuccessTracker(len(reqs))

	for _, req := range reqs {
		ad, err := r.registry.Get(req.Kind)
		if err != nil {
			return nil, err
		}
		if ad.Traits().SingleOrderOnly && len(reqs) != 1 {
			return nil, fmt.Errorf("router: %s orders fill alone: %w", req.Kind, domain.ErrUnsupportedBatch)
		}
	}

	extensions, err := r.resolveExternal(ctx, reqs, taker, opts.PartialAllowed, tracker)
	if err != nil {
		return nil, err
	}

	remaining := make([]*domain.FillRequest, 0, len(reqs))
	for _, req := range reqs {
		if tracker.pending(req.OriginalIndex) {
			remaining = append(remaining, req)
		}
	}

	var (
		frags     []domain.ExecutionFragment
		fragReqs  []*domain.FillRequest
		approvals []domain.ApprovalRequirement
	)
	for _, req := range remaining {
		ad, _ := r.registry.Get(req.Kind)
		fees := append(
			pricing.CleanFees(req.Fees),
			pricing.ProrateGlobalFees(opts.GlobalFees, 1, len(remaining))...,
		)

		frag, berr := ad.BuildBidFill(req, adapter.BidContext{
			Taker:              taker,
			RefundTo:           taker,
			Fees:               fees,
			RevertIfIncomplete: !opts.PartialAllowed,
			Extensions:         extensions,
		})
		if berr != nil {
			if !opts.PartialAllowed {
				return nil, fmt.Errorf("router: build bid %d: %w: %v", req.OriginalIndex, domain.ErrOrderUnfillable, berr)
			}
			r.logger.Warn("bid fill failed",
				"index", req.OriginalIndex,
				"kind", req.Kind,
				"error", berr)
			tracker.markUnfilled(req.OriginalIndex)
			continue
		}

		frags = append(frags, frag)
		fragReqs = append(fragReqs, req)
		tracker.markFilled(req.OriginalIndex)
	}

	if len(frags) == 0 {
		return nil, fmt.Errorf("router: %w", domain.ErrNoFillsPossible)
	}

	// With exactly one execution the NFT itself can carry the fill: a safe
	// transfer to the module with the router call data embedded, executed by
	// the module's receive hook. No approval or permit is needed and the
	// transaction targets the NFT contract.
	if len(frags) == 1 && !opts.ForcePermit {
		req := fragReqs[0]
		data, terr := nftTransferCall(req, taker, frags[0].Module, frags[0].Data)
		if terr != nil {
			return nil, terr
		}
		return &domain.FillBundle{
			Transactions: []domain.FillTransaction{{
				TxData: domain.TxPayload{
					From:  taker,
					To:    req.Contract,
					Data:  data,
					Value: new(big.Int),
				},
				OrderIndexes: []int{req.OriginalIndex},
			}},
			Success: tracker.slice(),
		}, nil
	}

	transfers := make([]domain.PermitTransfer, 0, len(frags))
	orderIndexes := make([]int, 0, len(frags))
	for i, req := range fragReqs {
		ap, aerr := nftApproval(req.Contract, taker, frags[i].Module)
		if aerr != nil {
			return nil, aerr
		}
		approvals = append(approvals, ap)
		transfers = append(transfers, domain.PermitTransfer{
			Token:     req.Contract,
			TokenID:   req.TokenID,
			Amount:    req.FillAmount(),
			Recipient: frags[i].Module,
		})
		orderIndexes = append(orderIndexes, req.OriginalIndex)
	}

	deadline := big.NewInt(time.Now().Add(r.permitDeadline).Unix())
	permit := r.permits.build(taker, transfers, new(big.Int), deadline)

	payload, perr := r.packageDispatch(taker, frags)
	if perr != nil {
		return nil, perr
	}
	return &domain.FillBundle{
		Transactions: []domain.FillTransaction{{
			Approvals:    dedupeApprovals(approvals),
			Permits:      []domain.Permit{permit},
			TxData:       payload,
			OrderIndexes: orderIndexes,
		}},
		Success: tracker.slice(),
	}, nil
}
