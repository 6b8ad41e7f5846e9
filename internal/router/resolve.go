package router

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// resolveExternal completes partial orders and fetches off-chain signed
// extensions. Fetches run concurrently, each feeding its own per-order slot;
// the join waits for all branches and a failure in one never cancels its
// siblings. Failed orders downgrade to unfilled in partial mode and abort the
// batch otherwise.
func (r *Router) resolveExternal(ctx context.Context, reqs []*domain.FillRequest, taker common.Address, partialAllowed bool, tracker *successTracker) (map[int]hexutil.Bytes, error) {
	failures := make([]error, len(reqs))
	extensions := make([]hexutil.Bytes, len(reqs))

	var g errgroup.Group
	for i, req := range reqs {
		if !tracker.pending(req.OriginalIndex) {
			continue
		}

		ad, err := r.registry.Get(req.Kind)
		if err != nil {
			return nil, err
		}
		needExtension := ad.Traits().OffchainSignature
		if !req.Partial && !needExtension {
			continue
		}

		if r.orders == nil {
			failures[i] = fmt.Errorf("router: order %d: no order-data client configured: %w", req.OriginalIndex, domain.ErrOrderUnfillable)
			continue
		}

		// The order-data service prices listing fulfillments, so pass the
		// unit price along whenever the embedded payload yields one.
		var unitPrice *big.Int
		if req.Side == domain.SideListing {
			if p, perr := ad.Price(req); perr == nil {
				unitPrice = p
			}
		}

		i, req := i, req
		g.Go(func() error {
			if req.Partial {
				order, ext, err := r.orders.FetchFullOrder(ctx, req, taker, unitPrice)
				if err != nil {
					failures[i] = err
					return nil
				}
				req.Order = order
				req.Partial = false
				extensions[i] = ext
			}
			if needExtension && len(extensions[i]) == 0 {
				ext, err := r.orders.FetchSignedExtension(ctx, req, taker)
				if err != nil {
					failures[i] = err
					return nil
				}
				extensions[i] = ext
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int]hexutil.Bytes)
	for i, req := range reqs {
		if failures[i] != nil {
			if !partialAllowed {
				return nil, fmt.Errorf("router: resolve order %d: %w: %v", req.OriginalIndex, domain.ErrOrderUnfillable, failures[i])
			}
			r.logger.Warn("order resolution failed",
				"index", req.OriginalIndex,
				"kind", req.Kind,
				"error", failures[i])
			tracker.markUnfilled(req.OriginalIndex)
			continue
		}
		if len(extensions[i]) > 0 {
			out[req.OriginalIndex] = extensions[i]
		}
	}
	return out, nil
}
