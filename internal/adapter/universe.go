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

// universeOrder is the Universe order payload. Universe orders carry revenue
// splits that the exchange settles internally; Amount is the full price the
// taker pays.
type universeOrder struct {
	Maker     common.Address `json:"maker"`
	Amount    string         `json:"amount"`
	Salt      string         `json:"salt"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Signature hexutil.Bytes  `json:"signature"`
}

type universePacked struct {
	Maker     common.Address
	Token     common.Address
	TokenID   *big.Int
	Amount    *big.Int
	Salt      *big.Int
	Start     *big.Int
	End       *big.Int
	Signature []byte
}

var universeOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "maker", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "amount", Type: "uint256"},
	{Name: "salt", Type: "uint256"},
	{Name: "start", Type: "uint256"},
	{Name: "end", Type: "uint256"},
	{Name: "signature", Type: "bytes"},
}...)}}

// Universe fills Universe orders through the Universe module.
type Universe struct {
	module common.Address
}

// NewUniverse creates the Universe adapter.
func NewUniverse(addrs Addresses) *Universe {
	return &Universe{module: addrs.UniverseModule}
}

func (u *Universe) Kind() domain.OrderKind { return domain.KindUniverse }

func (u *Universe) Module() common.Address { return u.module }

func (u *Universe) Traits() Traits {
	return Traits{CurrencyFlexible: true}
}

func (u *Universe) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := u.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.Amount)
	if err != nil {
		return nil, fmt.Errorf("universe: amount: %w", err)
	}
	return price, nil
}

func (u *Universe) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := u.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("universe: pack listings: %w", err)
	}
	return fragment(u.module, data, fc.Currency, fc.Amount), nil
}

func (u *Universe) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := u.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("universe: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: u.module, Data: data, Value: new(big.Int)}, nil
}

func (u *Universe) decode(req *domain.FillRequest) (*universeOrder, error) {
	var o universeOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("universe: decode order: %w", err)
	}
	return &o, nil
}

func (u *Universe) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := u.decode(req)
	if err != nil {
		return nil, err
	}
	amount, err := parseBig(o.Amount)
	if err != nil {
		return nil, fmt.Errorf("universe: amount: %w", err)
	}
	salt, err := parseBig(o.Salt)
	if err != nil {
		return nil, fmt.Errorf("universe: salt: %w", err)
	}
	start, err := parseBig(o.Start)
	if err != nil {
		return nil, fmt.Errorf("universe: start: %w", err)
	}
	end, err := parseBig(o.End)
	if err != nil {
		return nil, fmt.Errorf("universe: end: %w", err)
	}
	return universeOrderArgs.Pack(universePacked{
		Maker:     o.Maker,
		Token:     req.Contract,
		TokenID:   req.TokenID,
		Amount:    amount,
		Salt:      salt,
		Start:     start,
		End:       end,
		Signature: o.Signature,
	})
}
