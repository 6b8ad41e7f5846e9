package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/adapter"
	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/platform/blur"
	"github.com/alanyoungcy/nftagg/internal/pricing"
)

// listingPartition is one execution group: orders sharing a protocol, a
// settlement currency, and (for conduit-based protocols) a conduit key.
type listingPartition struct {
	ad       adapter.Adapter
	currency common.Address
	reqs     []*domain.FillRequest
}

func (p *listingPartition) indexes() []int {
	out := make([]int, 0, len(p.reqs))
	for _, req := range p.reqs {
		out = append(out, req.OriginalIndex)
	}
	return out
}

// CompileListingFill compiles a batch of listings into a transaction bundle
// paid for in buyCurrency. The returned bundle's Success slice is parallel to
// reqs; in partial mode individual failures are reported there instead of
// aborting the batch.
func (r *Router) CompileListingFill(ctx context.Context, reqs []*domain.FillRequest, taker, buyCurrency common.Address, opts domain.ListingFillOptions) (*domain.FillBundle, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("router: empty batch: %w", domain.ErrNoFillsPossible)
	}
	for i, req := range reqs {
		req.OriginalIndex = i
	}
	tracker := newSuccessTracker(len(reqs))
	from := sender(taker, opts.Relayer)

	// Protocols with no router module fill directly, one order per
	// transaction. Mixing them with anything else cannot be expressed.
	for _, req := range reqs {
		ad, err := r.registry.Get(req.Kind)
		if err != nil {
			return nil, err
		}
		if ad.Traits().SingleOrderOnly {
			if len(reqs) != 1 {
				return nil, fmt.Errorf("router: %s orders fill alone: %w", req.Kind, domain.ErrUnsupportedBatch)
			}
			return r.compileDirectListing(req, ad, taker, buyCurrency, from, opts, tracker)
		}
	}

	extensions, err := r.resolveExternal(ctx, reqs, taker, opts.PartialAllowed, tracker)
	if err != nil {
		return nil, err
	}

	externalTxs, externalOnly, err := r.compileExternalCalldata(ctx, reqs, taker, opts.PartialAllowed, tracker)
	if err != nil {
		return nil, err
	}

	remaining := make([]*domain.FillRequest, 0, len(reqs))
	for _, req := range reqs {
		if tracker.pending(req.OriginalIndex) {
			remaining = append(remaining, req)
		}
	}

	// Single-protocol fast path: everything shares one protocol, one
	// currency matching the buy currency, one conduit, and carries no fees.
	// Strictly an optimization over the general path, so a build failure
	// here falls through to the partitioned route instead of failing orders.
	if tx, ok, err := r.tryDirectBatch(remaining, taker, buyCurrency, from, opts); err != nil {
		r.logger.Warn("direct batch fill failed, using general path", "error", err)
	} else if ok {
		for _, req := range remaining {
			tracker.markFilled(req.OriginalIndex)
		}
		txs := append(externalTxs, *tx)
		return &domain.FillBundle{Transactions: txs, Success: tracker.slice()}, nil
	}

	partitions := r.partitionListings(remaining)

	var (
		fillFrags  []domain.ExecutionFragment
		fragOrders [][]int
		swapReqs   []domain.SwapRequirement
		approvals  []domain.ApprovalRequirement
		transfers  []domain.PermitTransfer
	)

	for _, p := range partitions {
		frag, total, perr := r.buildPartition(p, taker, opts, extensions, len(remaining))
		if perr != nil {
			if !opts.PartialAllowed {
				return nil, perr
			}
			r.logger.Warn("partition fill failed",
				"kind", p.ad.Kind(),
				"currency", p.currency,
				"error", perr)
			tracker.markUnfilled(p.indexes()...)
			continue
		}

		fragIdx := len(fillFrags)
		if p.currency != buyCurrency {
			// Funded by a preceding swap, so the fragment carries no
			// taker-supplied value.
			frag.Value = new(big.Int)
			swapReqs = append(swapReqs, domain.SwapRequirement{
				TokenIn:         buyCurrency,
				TokenOut:        p.currency,
				AmountOut:       total,
				Recipient:       p.ad.Module(),
				RefundTo:        taker,
				UnwrapToNative:  p.currency == domain.Eth,
				SourceIndexes:   p.indexes(),
				DependsFragment: fragIdx,
			})
		} else if p.currency != domain.Eth {
			ap, aerr := erc20Approval(p.currency, taker, r.addrs.Router, total)
			if aerr != nil {
				return nil, aerr
			}
			approvals = append(approvals, ap)
			transfers = append(transfers, domain.PermitTransfer{
				Token:     p.currency,
				Amount:    total,
				Recipient: r.addrs.Router,
			})
		}

		fillFrags = append(fillFrags, frag)
		fragOrders = append(fragOrders, p.indexes())
		tracker.markFilled(p.indexes()...)
	}

	swapFrags, swapApprovals, swapTransfers, dropped, err := r.resolveSwaps(ctx, swapReqs, taker, opts.PartialAllowed, tracker)
	if err != nil {
		return nil, err
	}
	approvals = append(approvals, swapApprovals...)
	transfers = append(transfers, swapTransfers...)

	fragments := make([]domain.ExecutionFragment, 0, len(swapFrags)+len(fillFrags))
	fragments = append(fragments, swapFrags...)
	var orderIndexes []int
	for fi, frag := range fillFrags {
		if dropped[fi] {
			continue
		}
		fragments = append(fragments, frag)
		orderIndexes = append(orderIndexes, fragOrders[fi]...)
	}

	txs := externalTxs
	if len(fragments) > 0 {
		payload, perr := r.packageDispatch(from, fragments)
		if perr != nil {
			return nil, perr
		}

		// One permit batches every ERC-20 movement the dispatch needs, both
		// settlement totals and swap inputs. The caller signs its digest.
		var permits []domain.Permit
		if len(transfers) > 0 {
			deadline := big.NewInt(time.Now().Add(r.permitDeadline).Unix())
			permits = append(permits, r.permits.build(taker, transfers, new(big.Int), deadline))
		}

		txs = append(txs, domain.FillTransaction{
			Approvals:    dedupeApprovals(approvals),
			Permits:      permits,
			TxData:       payload,
			OrderIndexes: orderIndexes,
		})
	}

	if len(txs) == 0 {
		if opts.PartialAllowed && externalOnly {
			return &domain.FillBundle{Success: tracker.slice()}, nil
		}
		return nil, fmt.Errorf("router: %w", domain.ErrNoFillsPossible)
	}
	return &domain.FillBundle{Transactions: txs, Success: tracker.slice()}, nil
}

// compileDirectListing fills a single order of a no-router protocol straight
// against its exchange.
func (r *Router) compileDirectListing(req *domain.FillRequest, ad adapter.Adapter, taker, buyCurrency, from common.Address, opts domain.ListingFillOptions, tracker *successTracker) (*domain.FillBundle, error) {
	if req.Currency != buyCurrency {
		return nil, fmt.Errorf("router: %s settles only in its native currency: %w", req.Kind, domain.ErrUnsupportedBatch)
	}

	price, err := ad.Price(req)
	if err != nil {
		return nil, fmt.Errorf("router: price order %d: %w: %v", req.OriginalIndex, domain.ErrOrderUnfillable, err)
	}
	fees := append(pricing.CleanFees(req.Fees), pricing.CleanFees(opts.GlobalFees)...)
	total := pricing.GroupTotal([]*big.Int{price}, fees)

	frag, err := ad.BuildListingFill([]*domain.FillRequest{req}, adapter.FillContext{
		Taker:              taker,
		RefundTo:           taker,
		Currency:           req.Currency,
		Amount:             total,
		Fees:               fees,
		RevertIfIncomplete: !opts.PartialAllowed,
		Direct:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("router: build order %d: %w: %v", req.OriginalIndex, domain.ErrOrderUnfillable, err)
	}

	var approvals []domain.ApprovalRequirement
	if req.Currency != domain.Eth {
		ap, aerr := erc20Approval(req.Currency, taker, frag.Module, total)
		if aerr != nil {
			return nil, aerr
		}
		approvals = append(approvals, ap)
	}

	tracker.markFilled(req.OriginalIndex)
	return &domain.FillBundle{
		Transactions: []domain.FillTransaction{{
			Approvals:    approvals,
			TxData:       packageDirect(from, frag),
			OrderIndexes: []int{req.OriginalIndex},
		}},
		Success: tracker.slice(),
	}, nil
}

// compileExternalCalldata handles protocols whose contracts reject routed
// calls. Their fill transactions come ready-made from the generation service,
// optionally bundled with orders from compatible protocols; responses are
// matched back by (contract, tokenId). The second result reports whether the
// whole batch consisted of such orders.
func (r *Router) compileExternalCalldata(ctx context.Context, reqs []*domain.FillRequest, taker common.Address, partialAllowed bool, tracker *successTracker) ([]domain.FillTransaction, bool, error) {
	var external, compatible []*domain.FillRequest
	for _, req := range reqs {
		if !tracker.pending(req.OriginalIndex) {
			continue
		}
		ad, err := r.registry.Get(req.Kind)
		if err != nil {
			return nil, false, err
		}
		switch {
		case ad.Traits().ExternalCallData:
			external = append(external, req)
		case req.Kind == domain.KindSeaport:
			compatible = append(compatible, req)
		}
	}
	if len(external) == 0 {
		return nil, false, nil
	}
	externalOnly := len(external) == len(reqs)

	candidates := append(append([]*domain.FillRequest{}, external...), compatible...)
	items := make([]blur.Item, 0, len(candidates))
	for _, req := range candidates {
		ad, _ := r.registry.Get(req.Kind)
		price, err := ad.Price(req)
		if err != nil {
			price = new(big.Int)
		}
		items = append(items, blur.Item{Contract: req.Contract, TokenID: req.TokenID, Price: price})
	}

	var bundles []blur.CalldataBundle
	if r.calldata != nil {
		fetched, err := r.calldata.FetchCalldata(ctx, taker, items)
		if err != nil {
			r.logger.Warn("external calldata fetch failed", "error", err)
		} else {
			bundles = fetched
		}
	}

	var txs []domain.FillTransaction
	anyExternalFilled := false
	for _, b := range bundles {
		var covered []*domain.FillRequest
		hasExternal := false
		for _, p := range b.Path {
			for _, req := range candidates {
				if !tracker.pending(req.OriginalIndex) {
					continue
				}
				if req.Contract == p.Contract && req.TokenID.Cmp(p.TokenID) == 0 {
					covered = append(covered, req)
					if ad, _ := r.registry.Get(req.Kind); ad != nil && ad.Traits().ExternalCallData {
						hasExternal = true
					}
					break
				}
			}
		}
		// A bundle is only trusted when it actually covers an order from the
		// restricted protocol.
		if !hasExternal || len(covered) == 0 {
			continue
		}

		indexes := make([]int, 0, len(covered))
		for _, req := range covered {
			indexes = append(indexes, req.OriginalIndex)
		}
		tracker.markFilled(indexes...)
		anyExternalFilled = true
		txs = append(txs, domain.FillTransaction{
			TxData: domain.TxPayload{
				From:  taker,
				To:    b.To,
				Data:  b.Data,
				Value: b.Value,
			},
			OrderIndexes: indexes,
		})
	}

	if !anyExternalFilled && !partialAllowed {
		return nil, externalOnly, fmt.Errorf("router: external call data unavailable: %w", domain.ErrOrderUnfillable)
	}
	for _, req := range external {
		if tracker.pending(req.OriginalIndex) {
			tracker.markUnfilled(req.OriginalIndex)
		}
	}
	return txs, externalOnly, nil
}

// tryDirectBatch attempts the single-protocol fast path. It returns ok=false
// without error when the batch does not qualify.
func (r *Router) tryDirectBatch(remaining []*domain.FillRequest, taker, buyCurrency, from common.Address, opts domain.ListingFillOptions) (*domain.FillTransaction, bool, error) {
	if len(remaining) == 0 || opts.ForceRouter || len(opts.GlobalFees) > 0 || opts.Relayer != (common.Address{}) {
		return nil, false, nil
	}

	first := remaining[0]
	ad, err := r.registry.Get(first.Kind)
	if err != nil {
		return nil, false, nil
	}
	traits := ad.Traits()
	if !traits.DirectBatch || first.Currency != buyCurrency {
		return nil, false, nil
	}
	for _, req := range remaining {
		if req.Kind != first.Kind || req.Currency != first.Currency {
			return nil, false, nil
		}
		if traits.UsesConduit && req.Conduit != first.Conduit {
			return nil, false, nil
		}
		if len(pricing.CleanFees(req.Fees)) > 0 {
			return nil, false, nil
		}
	}

	prices := make([]*big.Int, 0, len(remaining))
	for _, req := range remaining {
		price, perr := ad.Price(req)
		if perr != nil {
			return nil, false, nil
		}
		prices = append(prices, price)
	}
	total := pricing.GroupTotal(prices, nil)

	frag, err := ad.BuildListingFill(remaining, adapter.FillContext{
		Taker:              taker,
		RefundTo:           taker,
		Currency:           first.Currency,
		Amount:             total,
		RevertIfIncomplete: !opts.PartialAllowed,
		Direct:             true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("router: direct batch: %w: %v", domain.ErrOrderUnfillable, err)
	}

	var approvals []domain.ApprovalRequirement
	if first.Currency != domain.Eth {
		ap, aerr := erc20Approval(first.Currency, taker, frag.Module, total)
		if aerr != nil {
			return nil, false, aerr
		}
		approvals = append(approvals, ap)
	}

	indexes := make([]int, 0, len(remaining))
	for _, req := range remaining {
		indexes = append(indexes, req.OriginalIndex)
	}
	return &domain.FillTransaction{
		Approvals:    approvals,
		TxData:       packageDirect(from, frag),
		OrderIndexes: indexes,
	}, true, nil
}

// partitionListings groups orders by protocol, then by currency for
// currency-flexible protocols and by conduit key for conduit-based ones.
// Protocols without batch fills get one partition per order. First-seen order
// is preserved so identical inputs partition identically.
func (r *Router) partitionListings(reqs []*domain.FillRequest) []*listingPartition {
	var partitions []*listingPartition
	index := make(map[string]*listingPartition)

	for _, req := range reqs {
		ad, err := r.registry.Get(req.Kind)
		if err != nil {
			continue
		}
		traits := ad.Traits()

		key := string(req.Kind)
		if traits.CurrencyFlexible {
			key += ":" + req.Currency.Hex()
		}
		if traits.UsesConduit {
			key += ":" + req.Conduit.Hex()
		}
		if !traits.BatchFills {
			key += fmt.Sprintf(":%d", req.OriginalIndex)
		}

		p, ok := index[key]
		if !ok {
			p = &listingPartition{ad: ad, currency: req.Currency}
			index[key] = p
			partitions = append(partitions, p)
		}
		p.reqs = append(p.reqs, req)
	}
	return partitions
}

// buildPartition prices one partition, attaches its fee share, and builds its
// fill fragment. totalCount is the number of orders across all partitions,
// used to prorate global fees once per partition.
func (r *Router) buildPartition(p *listingPartition, taker common.Address, opts domain.ListingFillOptions, extensions map[int]hexutil.Bytes, totalCount int) (domain.ExecutionFragment, *big.Int, error) {
	prices := make([]*big.Int, 0, len(p.reqs))
	fees := pricing.ProrateGlobalFees(opts.GlobalFees, len(p.reqs), totalCount)
	for _, req := range p.reqs {
		price, err := p.ad.Price(req)
		if err != nil {
			return domain.ExecutionFragment{}, nil, fmt.Errorf("router: price order %d: %w: %v", req.OriginalIndex, domain.ErrOrderUnfillable, err)
		}
		prices = append(prices, price)
		fees = append(fees, pricing.CleanFees(req.Fees)...)
	}
	total := pricing.GroupTotal(prices, fees)

	frag, err := p.ad.BuildListingFill(p.reqs, adapter.FillContext{
		Taker:              taker,
		RefundTo:           taker,
		Currency:           p.currency,
		Amount:             total,
		Fees:               fees,
		RevertIfIncomplete: !opts.PartialAllowed,
		Extensions:         extensions,
	})
	if err != nil {
		return domain.ExecutionFragment{}, nil, fmt.Errorf("router: build %s partition: %w: %v", p.ad.Kind(), domain.ErrOrderUnfillable, err)
	}
	return frag, total, nil
}

// resolveSwaps synthesizes one swap per aggregated pool. A failed pool drops
// every fill fragment it would have funded and flips their orders back to
// unfilled; in strict mode it aborts the batch. ERC-20 swap inputs yield both
// an approval and a permit transfer authorizing the swap module to pull the
// input amount.
func (r *Router) resolveSwaps(ctx context.Context, swapReqs []domain.SwapRequirement, taker common.Address, partialAllowed bool, tracker *successTracker) ([]domain.ExecutionFragment, []domain.ApprovalRequirement, []domain.PermitTransfer, map[int]bool, error) {
	dropped := make(map[int]bool)
	if len(swapReqs) == 0 {
		return nil, nil, nil, dropped, nil
	}
	if r.swaps == nil {
		if !partialAllowed {
			return nil, nil, nil, nil, fmt.Errorf("router: no swap synthesizer configured: %w", domain.ErrSwapUnavailable)
		}
		for _, req := range swapReqs {
			tracker.markUnfilled(req.SourceIndexes...)
			dropped[req.DependsFragment] = true
		}
		return nil, nil, nil, dropped, nil
	}

	var (
		frags     []domain.ExecutionFragment
		approvals []domain.ApprovalRequirement
		transfers []domain.PermitTransfer
	)
	for _, pool := range r.swaps.Aggregate(swapReqs) {
		res, err := r.swaps.Synthesize(ctx, pool, taker)
		if err != nil {
			if !partialAllowed {
				return nil, nil, nil, nil, err
			}
			r.logger.Warn("swap synthesis failed",
				"tokenIn", pool.TokenIn,
				"tokenOut", pool.TokenOut,
				"error", err)
			tracker.markUnfilled(pool.SourceIndexes()...)
			for _, fi := range pool.FragmentIndexes() {
				dropped[fi] = true
			}
			continue
		}
		if res.Fragment == nil {
			continue
		}
		frags = append(frags, *res.Fragment)
		if pool.TokenIn != domain.Eth {
			ap, aerr := erc20Approval(pool.TokenIn, taker, r.addrs.SwapModule, res.AmountIn)
			if aerr != nil {
				return nil, nil, nil, nil, aerr
			}
			approvals = append(approvals, ap)
			transfers = append(transfers, domain.PermitTransfer{
				Token:     pool.TokenIn,
				Amount:    res.AmountIn,
				Recipient: r.addrs.SwapModule,
			})
		}
	}
	return frags, approvals, transfers, dropped, nil
}
