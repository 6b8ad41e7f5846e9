package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// forwardOrder is the Forward bid payload. Forward is a bid-side protocol:
// buyers escrow WETH in vaults and sellers fill against the escrowed bid.
type forwardOrder struct {
	Maker      common.Address `json:"maker"`
	UnitPrice  string         `json:"unitPrice"`
	Expiration string         `json:"expiration"`
	Salt       string         `json:"salt"`
	Signature  hexutil.Bytes  `json:"signature"`
}

type forwardPacked struct {
	Maker      common.Address
	Token      common.Address
	TokenID    *big.Int
	UnitPrice  *big.Int
	FillAmount *big.Int
	Expiration *big.Int
	Salt       *big.Int
	Signature  []byte
}

var forwardOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "maker", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "unitPrice", Type: "uint256"},
	{Name: "fillAmount", Type: "uint256"},
	{Name: "expiration", Type: "uint256"},
	{Name: "salt", Type: "uint256"},
	{Name: "signature", Type: "bytes"},
}...)}}

// Forward accepts Forward escrowed bids through the Forward module. Bids
// only: the protocol has no listing side.
type Forward struct {
	module common.Address
}

// NewForward creates the Forward adapter.
func NewForward(addrs Addresses) *Forward {
	return &Forward{module: addrs.ForwardModule}
}

func (f *Forward) Kind() domain.OrderKind { return domain.KindForward }

func (f *Forward) Module() common.Address { return f.module }

func (f *Forward) Traits() Traits {
	return Traits{Divisible: true}
}

func (f *Forward) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := f.decode(req)
	if err != nil {
		return nil, err
	}
	unit, err := parseBig(o.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("forward: unitPrice: %w", err)
	}
	// Sell side rounds down: the bidder never over-pays.
	return new(big.Int).Mul(unit, req.FillAmount()), nil
}

func (f *Forward) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("forward: %w: protocol has no listing side", domain.ErrOrderUnfillable)
}

func (f *Forward) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	o, err := f.decode(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	unit, err := parseBig(o.UnitPrice)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("forward: unitPrice: %w", err)
	}
	expiration, err := parseBig(o.Expiration)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("forward: expiration: %w", err)
	}
	salt, err := parseBig(o.Salt)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("forward: salt: %w", err)
	}
	blob, err := forwardOrderArgs.Pack(forwardPacked{
		Maker:      o.Maker,
		Token:      req.Contract,
		TokenID:    req.TokenID,
		UnitPrice:  unit,
		FillAmount: req.FillAmount(),
		Expiration: expiration,
		Salt:       salt,
		Signature:  o.Signature,
	})
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("forward: pack order: %w", err)
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("forward: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: f.module, Data: data, Value: new(big.Int)}, nil
}

func (f *Forward) decode(req *domain.FillRequest) (*forwardOrder, error) {
	var o forwardOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("forward: decode order: %w", err)
	}
	return &o, nil
}
