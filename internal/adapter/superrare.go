package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// superRareOrder is the SuperRare sale-price payload.
type superRareOrder struct {
	Seller   common.Address `json:"seller"`
	Price    string         `json:"price"`
	Currency common.Address `json:"currency"`
}

var superRareExchangeABI = mustABI(`[
  {"type":"function","name":"buy","inputs":[
    {"name":"originContract","type":"address"},
    {"name":"tokenId","type":"uint256"},
    {"name":"currency","type":"address"},
    {"name":"amount","type":"uint256"}]}
]`)

// SuperRare buys directly from the SuperRare bazaar. The bazaar validates
// msg.sender against its allow-list, so fills cannot be routed and only one
// order fits in a transaction.
type SuperRare struct {
	exchange common.Address
}

// NewSuperRare creates the SuperRare adapter.
func NewSuperRare(addrs Addresses) *SuperRare {
	return &SuperRare{exchange: addrs.SuperRareExchange}
}

func (s *SuperRare) Kind() domain.OrderKind { return domain.KindSuperRare }

func (s *SuperRare) Module() common.Address { return s.exchange }

func (s *SuperRare) Traits() Traits {
	return Traits{SingleOrderOnly: true}
}

func (s *SuperRare) Price(req *domain.FillRequest) (*big.Int, error) {
	var o superRareOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("superrare: decode order: %w", err)
	}
	price, err := parseBig(o.Price)
	if err != nil {
		return nil, fmt.Errorf("superrare: price: %w", err)
	}
	return price, nil
}

func (s *SuperRare) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	if len(reqs) != 1 {
		return domain.ExecutionFragment{}, fmt.Errorf("superrare: %w: one order per transaction", domain.ErrUnsupportedBatch)
	}
	req := reqs[0]
	price, err := s.Price(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := superRareExchangeABI.Pack("buy", req.Contract, req.TokenID, fc.Currency, price)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("superrare: pack buy: %w", err)
	}
	return fragment(s.exchange, data, fc.Currency, fc.Amount), nil
}

func (s *SuperRare) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("superrare: %w: offers cannot be routed", domain.ErrOrderUnfillable)
}
