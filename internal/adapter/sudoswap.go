package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// sudoswapOrder is the Sudoswap payload: the pair to trade against and the
// pool quotes captured at index time. Quotes are keyed by token id so that
// reordering the request batch upstream can never mismatch an order with
// another token's pool price.
type sudoswapOrder struct {
	Pair   common.Address  `json:"pair"`
	Quotes []sudoswapQuote `json:"quotes"`
}

type sudoswapQuote struct {
	TokenID string `json:"tokenId"`
	Price   string `json:"price"`
}

type sudoswapPacked struct {
	Pair    common.Address
	Token   common.Address
	TokenID *big.Int
	Price   *big.Int
}

var sudoswapOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "pair", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "price", Type: "uint256"},
}...)}}

// Sudoswap trades against Sudoswap bonding-curve pairs. Listings buy
// specific ids out of a pair; bids sell ids into it at the quoted minimum.
type Sudoswap struct {
	module common.Address
}

// NewSudoswap creates the Sudoswap adapter.
func NewSudoswap(addrs Addresses) *Sudoswap {
	return &Sudoswap{module: addrs.SudoswapModule}
}

func (s *Sudoswap) Kind() domain.OrderKind { return domain.KindSudoswap }

func (s *Sudoswap) Module() common.Address { return s.module }

func (s *Sudoswap) Traits() Traits {
	return Traits{BatchFills: true}
}

func (s *Sudoswap) Price(req *domain.FillRequest) (*big.Int, error) {
	_, price, err := s.quoteFor(req)
	return price, err
}

func (s *Sudoswap) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := s.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("sudoswap: pack listings: %w", err)
	}
	return fragment(s.module, data, fc.Currency, fc.Amount), nil
}

func (s *Sudoswap) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := s.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("sudoswap: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: s.module, Data: data, Value: new(big.Int)}, nil
}

// quoteFor returns the pair and the quoted price for the request's token id.
func (s *Sudoswap) quoteFor(req *domain.FillRequest) (common.Address, *big.Int, error) {
	var o sudoswapOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return common.Address{}, nil, fmt.Errorf("sudoswap: decode order: %w", err)
	}
	want := req.TokenID.String()
	for _, q := range o.Quotes {
		if q.TokenID != want {
			continue
		}
		price, err := parseBig(q.Price)
		if err != nil {
			return common.Address{}, nil, fmt.Errorf("sudoswap: quote price: %w", err)
		}
		return o.Pair, price, nil
	}
	return common.Address{}, nil, fmt.Errorf("sudoswap: no quote for token %s in pair %s", want, o.Pair)
}

func (s *Sudoswap) packOrder(req *domain.FillRequest) ([]byte, error) {
	pair, price, err := s.quoteFor(req)
	if err != nil {
		return nil, err
	}
	return sudoswapOrderArgs.Pack(sudoswapPacked{
		Pair:    pair,
		Token:   req.Contract,
		TokenID: req.TokenID,
		Price:   price,
	})
}
