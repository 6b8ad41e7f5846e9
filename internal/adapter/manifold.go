package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// manifoldOrder is the Manifold marketplace payload: an on-chain listing id
// plus the current unit price.
type manifoldOrder struct {
	ListingID string `json:"listingId"`
	UnitPrice string `json:"unitPrice"`
}

var manifoldExchangeABI = mustABI(`[
  {"type":"function","name":"purchase","inputs":[
    {"name":"listingId","type":"uint256"},
    {"name":"count","type":"uint256"}]}
]`)

// Manifold purchases directly from the Manifold marketplace, which checks
// msg.sender during purchase and therefore cannot sit behind the router.
type Manifold struct {
	exchange common.Address
}

// NewManifold creates the Manifold adapter.
func NewManifold(addrs Addresses) *Manifold {
	return &Manifold{exchange: addrs.ManifoldExchange}
}

func (m *Manifold) Kind() domain.OrderKind { return domain.KindManifold }

func (m *Manifold) Module() common.Address { return m.exchange }

func (m *Manifold) Traits() Traits {
	return Traits{SingleOrderOnly: true, Divisible: true}
}

func (m *Manifold) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := m.decode(req)
	if err != nil {
		return nil, err
	}
	unit, err := parseBig(o.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("manifold: unitPrice: %w", err)
	}
	return new(big.Int).Mul(unit, req.FillAmount()), nil
}

func (m *Manifold) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	if len(reqs) != 1 {
		return domain.ExecutionFragment{}, fmt.Errorf("manifold: %w: one listing per transaction", domain.ErrUnsupportedBatch)
	}
	req := reqs[0]
	o, err := m.decode(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	listingID, err := parseBig(o.ListingID)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("manifold: listingId: %w", err)
	}
	data, err := manifoldExchangeABI.Pack("purchase", listingID, req.FillAmount())
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("manifold: pack purchase: %w", err)
	}
	return fragment(m.exchange, data, fc.Currency, fc.Amount), nil
}

func (m *Manifold) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("manifold: %w: offers cannot be routed", domain.ErrOrderUnfillable)
}

func (m *Manifold) decode(req *domain.FillRequest) (*manifoldOrder, error) {
	var o manifoldOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("manifold: decode order: %w", err)
	}
	return &o, nil
}
