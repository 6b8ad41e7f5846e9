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

// flowOrder is the Flow maker order payload. StartPrice covers the whole
// validity window for fixed-price orders; declining-price orders are
// re-priced by the exchange at execution, so StartPrice is the amount the
// module must have available.
type flowOrder struct {
	Signer     common.Address `json:"signer"`
	StartPrice string         `json:"startPrice"`
	EndPrice   string         `json:"endPrice"`
	StartTime  string         `json:"startTime"`
	EndTime    string         `json:"endTime"`
	Nonce      string         `json:"nonce"`
	Signature  hexutil.Bytes  `json:"signature"`
}

type flowPacked struct {
	Signer     common.Address
	Token      common.Address
	TokenID    *big.Int
	StartPrice *big.Int
	EndPrice   *big.Int
	StartTime  *big.Int
	EndTime    *big.Int
	Nonce      *big.Int
	Signature  []byte
}

var flowOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "signer", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "startPrice", Type: "uint256"},
	{Name: "endPrice", Type: "uint256"},
	{Name: "startTime", Type: "uint256"},
	{Name: "endTime", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "signature", Type: "bytes"},
}...)}}

// Flow fills Flow maker orders through the Flow module.
type Flow struct {
	module common.Address
	kind   domain.OrderKind
}

// NewFlow creates the Flow adapter.
func NewFlow(addrs Addresses) *Flow {
	return &Flow{module: addrs.FlowModule, kind: domain.KindFlow}
}

// NewInfinity creates the Infinity adapter. Infinity shares Flow's order
// shape and module surface; only the deployment differs.
func NewInfinity(addrs Addresses) *Flow {
	return &Flow{module: addrs.InfinityModule, kind: domain.KindInfinity}
}

func (f *Flow) Kind() domain.OrderKind { return f.kind }

func (f *Flow) Module() common.Address { return f.module }

func (f *Flow) Traits() Traits {
	return Traits{BatchFills: true}
}

// Price quotes at StartPrice, the maximum over the order's validity window,
// so a declining-price execution can never come up short.
func (f *Flow) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := f.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.StartPrice)
	if err != nil {
		return nil, fmt.Errorf("%s: startPrice: %w", f.kind, err)
	}
	return price, nil
}

func (f *Flow) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := f.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("%s: pack listings: %w", f.kind, err)
	}
	return fragment(f.module, data, fc.Currency, fc.Amount), nil
}

func (f *Flow) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := f.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("%s: pack bid: %w", f.kind, err)
	}
	return domain.ExecutionFragment{Module: f.module, Data: data, Value: new(big.Int)}, nil
}

func (f *Flow) decode(req *domain.FillRequest) (*flowOrder, error) {
	var o flowOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("%s: decode order: %w", f.kind, err)
	}
	return &o, nil
}

func (f *Flow) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := f.decode(req)
	if err != nil {
		return nil, err
	}

	vals := make(map[string]*big.Int, 5)
	for name, raw := range map[string]string{
		"startPrice": o.StartPrice, "endPrice": o.EndPrice,
		"startTime": o.StartTime, "endTime": o.EndTime, "nonce": o.Nonce,
	} {
		v, err := parseBig(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", f.kind, name, err)
		}
		vals[name] = v
	}

	return flowOrderArgs.Pack(flowPacked{
		Signer:     o.Signer,
		Token:      req.Contract,
		TokenID:    req.TokenID,
		StartPrice: vals["startPrice"],
		EndPrice:   vals["endPrice"],
		StartTime:  vals["startTime"],
		EndTime:    vals["endTime"],
		Nonce:      vals["nonce"],
		Signature:  o.Signature,
	})
}
