package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// foundationOrder is the Foundation buy-now payload. Like Zora, the terms
// live on chain; the payload only mirrors them for pricing.
type foundationOrder struct {
	Seller common.Address `json:"seller"`
	Price  string         `json:"price"`
}

type foundationPacked struct {
	Token   common.Address
	TokenID *big.Int
	Price   *big.Int
}

var foundationOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "price", Type: "uint256"},
}...)}}

// Foundation fills Foundation buy-now listings through the Foundation
// module. ETH only, listings only.
type Foundation struct {
	module common.Address
}

// NewFoundation creates the Foundation adapter.
func NewFoundation(addrs Addresses) *Foundation {
	return &Foundation{module: addrs.FoundationModule}
}

func (f *Foundation) Kind() domain.OrderKind { return domain.KindFoundation }

func (f *Foundation) Module() common.Address { return f.module }

func (f *Foundation) Traits() Traits {
	return Traits{BatchFills: true}
}

func (f *Foundation) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := f.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.Price)
	if err != nil {
		return nil, fmt.Errorf("foundation: price: %w", err)
	}
	return price, nil
}

func (f *Foundation) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		o, err := f.decode(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		price, err := parseBig(o.Price)
		if err != nil {
			return domain.ExecutionFragment{}, fmt.Errorf("foundation: price: %w", err)
		}
		blob, err := foundationOrderArgs.Pack(foundationPacked{
			Token:   req.Contract,
			TokenID: req.TokenID,
			Price:   price,
		})
		if err != nil {
			return domain.ExecutionFragment{}, fmt.Errorf("foundation: pack order: %w", err)
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("foundation: pack listings: %w", err)
	}
	return fragment(f.module, data, fc.Currency, fc.Amount), nil
}

func (f *Foundation) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("foundation: %w: offers cannot be routed", domain.ErrOrderUnfillable)
}

func (f *Foundation) decode(req *domain.FillRequest) (*foundationOrder, error) {
	var o foundationOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("foundation: decode order: %w", err)
	}
	return &o, nil
}
