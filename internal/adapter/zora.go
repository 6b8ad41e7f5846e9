package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// zoraOrder is the Zora V3 Asks payload. Asks live on chain unsigned; the
// module fills by calling the Asks contract with the seller's stored terms.
type zoraOrder struct {
	Seller        common.Address `json:"seller"`
	AskPrice      string         `json:"askPrice"`
	AskCurrency   common.Address `json:"askCurrency"`
	FindersFeeBps string         `json:"findersFeeBps,omitempty"`
}

type zoraPacked struct {
	Seller      common.Address
	Token       common.Address
	TokenID     *big.Int
	AskPrice    *big.Int
	AskCurrency common.Address
	FindersFee  uint16
}

var zoraOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "seller", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "askPrice", Type: "uint256"},
	{Name: "askCurrency", Type: "address"},
	{Name: "findersFee", Type: "uint16"},
}...)}}

// Zora fills Zora V3 asks through the Zora module. Asks only: Zora offers
// are not routable.
type Zora struct {
	module common.Address
}

// NewZora creates the Zora adapter.
func NewZora(addrs Addresses) *Zora {
	return &Zora{module: addrs.ZoraModule}
}

func (z *Zora) Kind() domain.OrderKind { return domain.KindZora }

func (z *Zora) Module() common.Address { return z.module }

func (z *Zora) Traits() Traits {
	return Traits{CurrencyFlexible: true}
}

func (z *Zora) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := z.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.AskPrice)
	if err != nil {
		return nil, fmt.Errorf("zora-v3: askPrice: %w", err)
	}
	return price, nil
}

func (z *Zora) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := z.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("zora-v3: pack listings: %w", err)
	}
	return fragment(z.module, data, fc.Currency, fc.Amount), nil
}

func (z *Zora) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("zora-v3: %w: offers cannot be routed", domain.ErrOrderUnfillable)
}

func (z *Zora) decode(req *domain.FillRequest) (*zoraOrder, error) {
	var o zoraOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("zora-v3: decode order: %w", err)
	}
	return &o, nil
}

func (z *Zora) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := z.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.AskPrice)
	if err != nil {
		return nil, fmt.Errorf("zora-v3: askPrice: %w", err)
	}
	var findersFee uint16
	if o.FindersFeeBps != "" {
		bps, err := parseBig(o.FindersFeeBps)
		if err != nil || !bps.IsUint64() || bps.Uint64() > 10000 {
			return nil, fmt.Errorf("zora-v3: malformed findersFeeBps %q", o.FindersFeeBps)
		}
		findersFee = uint16(bps.Uint64())
	}
	return zoraOrderArgs.Pack(zoraPacked{
		Seller:      o.Seller,
		Token:       req.Contract,
		TokenID:     req.TokenID,
		AskPrice:    price,
		AskCurrency: o.AskCurrency,
		FindersFee:  findersFee,
	})
}
