package domain

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Eth is the sentinel address conventionally used for the native currency.
var Eth = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Fee is a payout attached to an order or to a whole fill: an amount in the
// settlement currency's smallest unit sent to a recipient.
type Fee struct {
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
}

// Valid reports whether the fee should be counted at all. Zero amounts and
// null recipients are dropped silently, never treated as errors.
func (f Fee) Valid() bool {
	return f.Amount != nil && f.Amount.Sign() > 0 && f.Recipient != (common.Address{})
}

// FillRequest is one listing or bid the caller wants filled. Order carries the
// protocol-specific payload; the adapter for Kind knows how to decode it.
//
// OriginalIndex ties the request back to its position in the caller's input
// array and must survive every partitioning step so that the result bundle's
// success slice lines up with the input.
type FillRequest struct {
	Kind          OrderKind       `json:"kind"`
	Side          Side            `json:"side"`
	Order         json.RawMessage `json:"order"`
	Contract      common.Address  `json:"contract"`
	TokenID       *big.Int        `json:"tokenId"`
	Amount        *big.Int        `json:"amount,omitempty"` // units to fill; nil means 1
	Currency      common.Address  `json:"currency"`
	Fees          []Fee           `json:"fees,omitempty"`
	ContractKind  ContractKind    `json:"contractKind"`
	Source        string          `json:"source,omitempty"`
	OriginalIndex int             `json:"-"`

	// Partial marks an order whose full terms are not embedded in Order and
	// must be fetched from the order-data service before filling.
	Partial bool `json:"partial,omitempty"`

	// OrderID is the index-side identifier (hash) used when resolving a
	// partial order or fetching an off-chain signature.
	OrderID string `json:"orderId,omitempty"`

	// Conduit is the settlement-conduit key for conduit-based protocols; the
	// zero hash means the protocol default.
	Conduit common.Hash `json:"conduit,omitempty"`
}

// FillAmount returns the number of units this request fills, defaulting to 1.
func (r *FillRequest) FillAmount() *big.Int {
	if r.Amount == nil || r.Amount.Sign() == 0 {
		return big.NewInt(1)
	}
	return r.Amount
}

// ListingFillOptions controls listing-side compilation.
type ListingFillOptions struct {
	// PartialAllowed keeps compiling when individual orders fail, reporting
	// them through the success slice instead of aborting the batch.
	PartialAllowed bool

	// GlobalFees are prorated across execution groups on top of per-order fees.
	GlobalFees []Fee

	// ForceRouter disables the single-protocol direct-fill fast path.
	ForceRouter bool

	// Relayer overrides the transaction sender when a custom relayer will
	// submit the compiled transaction.
	Relayer common.Address
}

// BidFillOptions controls bid-side compilation.
type BidFillOptions struct {
	PartialAllowed bool
	GlobalFees     []Fee

	// ForcePermit disables the single-execution direct NFT-transfer shortcut
	// and always emits the approve+permit+execute sequence.
	ForcePermit bool
}
