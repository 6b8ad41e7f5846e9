package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/pricing"
)

// seaportOrder is the protocol payload carried in a fill request. Amounts are
// decimal strings. Consideration items together make up the order's unit
// price; for multi-unit orders they cover TotalAmount units.
type seaportOrder struct {
	Offerer       common.Address         `json:"offerer"`
	Zone          common.Address         `json:"zone"`
	ConduitKey    common.Hash            `json:"conduitKey"`
	Consideration []seaportConsideration `json:"consideration"`
	TotalAmount   string                 `json:"totalAmount,omitempty"`
	Counter       string                 `json:"counter,omitempty"`
	Signature     hexutil.Bytes          `json:"signature"`
	ExtraData     hexutil.Bytes          `json:"extraData,omitempty"`
}

type seaportConsideration struct {
	Recipient common.Address `json:"recipient"`
	Amount    string         `json:"amount"`
}

// seaportPacked is the abi tuple handed to the Seaport module.
type seaportPacked struct {
	Offerer       common.Address
	Zone          common.Address
	ConduitKey    [32]byte
	Token         common.Address
	Identifier    *big.Int
	FillAmount    *big.Int
	TotalAmount   *big.Int
	Consideration []seaportPackedItem
	Signature     []byte
	ExtraData     []byte
}

type seaportPackedItem struct {
	Recipient common.Address
	Amount    *big.Int
}

var seaportOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "offerer", Type: "address"},
	{Name: "zone", Type: "address"},
	{Name: "conduitKey", Type: "bytes32"},
	{Name: "token", Type: "address"},
	{Name: "identifier", Type: "uint256"},
	{Name: "fillAmount", Type: "uint256"},
	{Name: "totalAmount", Type: "uint256"},
	{Name: "consideration", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "recipient", Type: "address"},
		{Name: "amount", Type: "uint256"},
	}},
	{Name: "signature", Type: "bytes"},
	{Name: "extraData", Type: "bytes"},
}...)}}

// seaportExchangeABI is the native batch entry point used for the
// single-protocol fast path.
var seaportExchangeABI = mustABI(`[
  {"type":"function","name":"fulfillAvailableOrders","inputs":[
    {"name":"orders","type":"bytes[]"},
    {"name":"fulfillerConduitKey","type":"bytes32"},
    {"name":"recipient","type":"address"},
    {"name":"maximumFulfilled","type":"uint256"}]}
]`)

// Seaport fills Seaport v1.5 orders. Orders batch per conduit key and settle
// in ETH or arbitrary ERC-20s; multi-unit orders are divisible.
type Seaport struct {
	module   common.Address
	exchange common.Address
}

// NewSeaport creates the Seaport adapter.
func NewSeaport(addrs Addresses) *Seaport {
	return &Seaport{module: addrs.SeaportModule, exchange: addrs.SeaportExchange}
}

func (s *Seaport) Kind() domain.OrderKind { return domain.KindSeaport }

func (s *Seaport) Module() common.Address { return s.module }

func (s *Seaport) Traits() Traits {
	return Traits{
		CurrencyFlexible: true,
		BatchFills:       true,
		DirectBatch:      true,
		Divisible:        true,
		UsesConduit:      true,
	}
}

// Price sums the order's consideration items and scales them to the
// requested fill amount. Scaling rounds up: Seaport reverts on under-payment.
func (s *Seaport) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := s.decode(req)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, c := range o.Consideration {
		amt, err := parseBig(c.Amount)
		if err != nil {
			return nil, fmt.Errorf("seaport: consideration: %w", err)
		}
		total.Add(total, amt)
	}

	totalAmount, err := s.totalAmount(o)
	if err != nil {
		return nil, err
	}
	return pricing.ScaleAmount(total, req.FillAmount(), totalAmount, true), nil
}

func (s *Seaport) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := s.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}

	if fc.Direct {
		conduit := [32]byte{}
		if len(reqs) > 0 {
			conduit = [32]byte(reqs[0].Conduit)
		}
		data, err := seaportExchangeABI.Pack("fulfillAvailableOrders",
			orders, conduit, fc.Taker, big.NewInt(int64(len(orders))))
		if err != nil {
			return domain.ExecutionFragment{}, fmt.Errorf("seaport: pack direct fill: %w", err)
		}
		return fragment(s.exchange, data, fc.Currency, fc.Amount), nil
	}

	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("seaport: pack listings: %w", err)
	}
	return fragment(s.module, data, fc.Currency, fc.Amount), nil
}

func (s *Seaport) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := s.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("seaport: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: s.module, Data: data, Value: new(big.Int)}, nil
}

func (s *Seaport) decode(req *domain.FillRequest) (*seaportOrder, error) {
	var o seaportOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("seaport: decode order: %w", err)
	}
	if len(o.Consideration) == 0 {
		return nil, fmt.Errorf("seaport: order has no consideration")
	}
	return &o, nil
}

func (s *Seaport) totalAmount(o *seaportOrder) (*big.Int, error) {
	if o.TotalAmount == "" {
		return big.NewInt(1), nil
	}
	v, err := parseBig(o.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("seaport: totalAmount: %w", err)
	}
	return v, nil
}

func (s *Seaport) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := s.decode(req)
	if err != nil {
		return nil, err
	}
	totalAmount, err := s.totalAmount(o)
	if err != nil {
		return nil, err
	}

	items := make([]seaportPackedItem, 0, len(o.Consideration))
	for _, c := range o.Consideration {
		amt, err := parseBig(c.Amount)
		if err != nil {
			return nil, fmt.Errorf("seaport: consideration: %w", err)
		}
		items = append(items, seaportPackedItem{Recipient: c.Recipient, Amount: amt})
	}

	return seaportOrderArgs.Pack(seaportPacked{
		Offerer:       o.Offerer,
		Zone:          o.Zone,
		ConduitKey:    [32]byte(o.ConduitKey),
		Token:         req.Contract,
		Identifier:    req.TokenID,
		FillAmount:    req.FillAmount(),
		TotalAmount:   totalAmount,
		Consideration: items,
		Signature:     o.Signature,
		ExtraData:     o.ExtraData,
	})
}
