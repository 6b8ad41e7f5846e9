// Package adapter implements one protocol adapter per supported exchange.
// An adapter decodes its protocol's order payload, computes the native price
// for a requested fill amount, and builds the call-data fragment that fills
// the order through the protocol's router module or directly against the
// exchange. Adapters are looked up through a Registry keyed by order kind, so
// adding a protocol is a localized extension.
package adapter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// Traits describe the shape of a protocol's on-chain integration. The router
// partitions and gates batches based on these flags.
type Traits struct {
	// SingleOrderOnly protocols have no router module: exactly one order per
	// transaction, filled directly against the exchange. Mixing such an order
	// with anything else is an unsupported batch.
	SingleOrderOnly bool

	// ExternalCallData protocols reject calls routed through any intermediary
	// contract; their fill call data comes from an external generation
	// service, never from the adapter.
	ExternalCallData bool

	// CurrencyFlexible protocols settle in arbitrary ERC-20s, so the router
	// additionally partitions their orders by currency.
	CurrencyFlexible bool

	// BatchFills protocols accept many orders in one module call.
	BatchFills bool

	// DirectBatch protocols expose a native batch-fill entry point usable for
	// the single-protocol fast path.
	DirectBatch bool

	// Divisible protocols allow fractional fills of multi-unit orders.
	Divisible bool

	// OffchainSignature protocols need per-order extension bytes fetched from
	// the order-data service at fill time.
	OffchainSignature bool

	// UsesConduit protocols settle through a transfer conduit; orders can
	// only batch when they share one conduit key.
	UsesConduit bool
}

// FillContext carries the group-level parameters an adapter needs to build a
// listing-fill fragment.
type FillContext struct {
	Taker    common.Address
	RefundTo common.Address

	// Currency and Amount are the group's settlement currency and aggregate
	// value including all fees.
	Currency common.Address
	Amount   *big.Int

	// Fees are the cleaned per-order fees plus the group's prorated share of
	// any global fees.
	Fees []domain.Fee

	// RevertIfIncomplete is the inverse of partial-fill mode.
	RevertIfIncomplete bool

	// Direct selects the protocol's native batch entry point instead of the
	// router module (single-protocol fast path).
	Direct bool

	// Extensions holds fetched off-chain extension bytes keyed by the
	// order's original index.
	Extensions map[int]hexutil.Bytes
}

// BidContext carries the parameters for building a bid-accept fragment.
type BidContext struct {
	Taker              common.Address
	RefundTo           common.Address
	Fees               []domain.Fee
	RevertIfIncomplete bool
	Extensions         map[int]hexutil.Bytes
}

// Adapter is the per-protocol strategy. Price and the Build methods must
// apply the protocol's exact rounding rules; ceiling division is used
// wherever under-payment would revert on chain.
type Adapter interface {
	Kind() domain.OrderKind
	Traits() Traits

	// Module is the router module that handles this protocol. For
	// single-order-only protocols it is the exchange contract itself.
	Module() common.Address

	// Price returns the native price of filling req at its requested fill
	// amount, in the order's settlement currency.
	Price(req *domain.FillRequest) (*big.Int, error)

	// BuildListingFill encodes one fragment filling all reqs, which share a
	// protocol, currency, and (where applicable) conduit.
	BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error)

	// BuildBidFill encodes one fragment accepting a single bid.
	BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error)
}

// ExtensionFetcher fetches protocol-required signed extension bytes for a
// single order. Implemented by the order-data platform client. A fetch
// failure is per-order and must not abort sibling orders in partial mode.
type ExtensionFetcher interface {
	FetchSignedExtension(ctx context.Context, req *domain.FillRequest, taker common.Address) (hexutil.Bytes, error)
}
