package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// x2y2Order is the X2Y2 order payload. The index holds only the order
// reference and price; the exchange input that actually fills the order is
// signed by X2Y2's servers and fetched at fill time.
type x2y2Order struct {
	OrderID string         `json:"orderId"`
	Maker   common.Address `json:"maker"`
	Price   string         `json:"price"`
}

// X2Y2 fills X2Y2 orders through the X2Y2 module. Every fill requires a
// signed exchange input from the order-data service; the adapter forwards the
// fetched input untouched since its signature covers the exact bytes.
type X2Y2 struct {
	module  common.Address
	fetcher ExtensionFetcher
}

// NewX2Y2 creates the X2Y2 adapter. fetcher supplies the signed exchange
// inputs and may be nil when X2Y2 orders will never be filled.
func NewX2Y2(addrs Addresses, fetcher ExtensionFetcher) *X2Y2 {
	return &X2Y2{module: addrs.X2Y2Module, fetcher: fetcher}
}

func (x *X2Y2) Kind() domain.OrderKind { return domain.KindX2Y2 }

func (x *X2Y2) Module() common.Address { return x.module }

func (x *X2Y2) Traits() Traits {
	return Traits{
		BatchFills:        true,
		OffchainSignature: true,
	}
}

// Fetcher exposes the signed-extension source for the router's concurrent
// pre-fetch phase.
func (x *X2Y2) Fetcher() ExtensionFetcher { return x.fetcher }

func (x *X2Y2) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := x.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.Price)
	if err != nil {
		return nil, fmt.Errorf("x2y2: price: %w", err)
	}
	return price, nil
}

func (x *X2Y2) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		input, ok := fc.Extensions[req.OriginalIndex]
		if !ok || len(input) == 0 {
			return domain.ExecutionFragment{}, fmt.Errorf("x2y2: order %s: missing signed input", req.OrderID)
		}
		orders = append(orders, input)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("x2y2: pack listings: %w", err)
	}
	return fragment(x.module, data, fc.Currency, fc.Amount), nil
}

func (x *X2Y2) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	input, ok := bc.Extensions[req.OriginalIndex]
	if !ok || len(input) == 0 {
		return domain.ExecutionFragment{}, fmt.Errorf("x2y2: order %s: missing signed input", req.OrderID)
	}
	data, err := packBid(input, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("x2y2: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: x.module, Data: data, Value: new(big.Int)}, nil
}

func (x *X2Y2) decode(req *domain.FillRequest) (*x2y2Order, error) {
	var o x2y2Order
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("x2y2: decode order: %w", err)
	}
	if o.OrderID == "" {
		return nil, fmt.Errorf("x2y2: order missing orderId")
	}
	return &o, nil
}
