package domain

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ExecutionFragment is one atomic step of the compiled transaction: a module
// address, the call data to invoke on it, and the native value it needs.
//
// Fragments are executed by the on-chain dispatcher strictly in array order. A
// later fragment may consume funds produced by an earlier one (a swap feeding
// a fill); that dependency is expressed only by position, never by data edges.
type ExecutionFragment struct {
	Module common.Address `json:"module"`
	Data   hexutil.Bytes  `json:"data"`
	Value  *big.Int       `json:"value"`
}

// SwapRequirement records that a group of fill fragments needs Currency
// conversion before it can execute. Requirements are aggregated per
// (tokenIn, tokenOut) pool with ETH and WETH normalized to the same pool key
// for aggregation only: the swap itself is skipped only when TokenIn and
// TokenOut are exactly identical.
type SwapRequirement struct {
	TokenIn         common.Address
	TokenOut        common.Address
	AmountOut       *big.Int // target output across all dependent fragments
	Recipient       common.Address
	RefundTo        common.Address
	UnwrapToNative  bool
	SourceIndexes   []int // original indexes of the orders funded by the swap
	DependsFragment int   // index of the fill fragment that consumes the output
}

// ApprovalRequirement is an ERC-20 or NFT approval the taker must have in
// place before the compiled transaction can succeed. TxData is the prebuilt
// approve call against Token.
type ApprovalRequirement struct {
	Token    common.Address `json:"token"`
	Owner    common.Address `json:"owner"`
	Operator common.Address `json:"operator"`
	TxData   hexutil.Bytes  `json:"txData"`
}

// Same reports identity for deduplication purposes: two approvals are the
// same when owner, operator, and call data all match.
func (a ApprovalRequirement) Same(b ApprovalRequirement) bool {
	return a.Owner == b.Owner && a.Operator == b.Operator && bytes.Equal(a.TxData, b.TxData)
}

// PermitTransfer is one token movement covered by a batch permit.
type PermitTransfer struct {
	Token     common.Address `json:"token"`
	TokenID   *big.Int       `json:"tokenId,omitempty"` // nil for ERC-20 amounts
	Amount    *big.Int       `json:"amount"`
	Recipient common.Address `json:"recipient"`
}

// Permit is a batch transfer authorization the taker signs once per
// transaction. Digest is the EIP-712 digest to be signed; the signature is
// supplied by the caller, not produced here.
type Permit struct {
	Owner     common.Address   `json:"owner"`
	Spender   common.Address   `json:"spender"`
	Transfers []PermitTransfer `json:"transfers"`
	Nonce     *big.Int         `json:"nonce"`
	Deadline  *big.Int         `json:"deadline"`
	Digest    hexutil.Bytes    `json:"digest"`
}

// TxPayload is the raw transaction the caller should sign and submit.
type TxPayload struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *big.Int       `json:"value"`
}

// FillTransaction pairs one transaction with the side artifacts it needs and
// the original order indexes it covers.
type FillTransaction struct {
	Approvals    []ApprovalRequirement `json:"approvals"`
	Permits      []Permit              `json:"permits"`
	TxData       TxPayload             `json:"txData"`
	OrderIndexes []int                 `json:"orderIndexes"`
}

// FillBundle is the compiled result. Success is parallel to the caller's
// request array: Success[i] is true iff request i is represented in some
// emitted transaction. An order can flip back to false late in the pipeline
// when a dependency (its swap) fails.
type FillBundle struct {
	Transactions []FillTransaction `json:"transactions"`
	Success      []bool            `json:"success"`
}
