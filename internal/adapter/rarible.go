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

// raribleOrder is the Rarible V2 order payload. TakeValue is the full asking
// price; origin fees come out of it per the order's data blob, so the taker
// pays TakeValue and nothing more.
type raribleOrder struct {
	Maker      common.Address  `json:"maker"`
	TakeValue  string          `json:"takeValue"`
	MakeValue  string          `json:"makeValue,omitempty"`
	Salt       string          `json:"salt"`
	OriginFees []raribleOrigin `json:"originFees,omitempty"`
	Signature  hexutil.Bytes   `json:"signature"`
}

type raribleOrigin struct {
	Account common.Address `json:"account"`
	Value   string         `json:"value"` // basis points
}

type rariblePacked struct {
	Maker      common.Address
	Token      common.Address
	TokenID    *big.Int
	TakeValue  *big.Int
	MakeValue  *big.Int
	Salt       *big.Int
	OriginFees []rariblePackedOrigin
	Signature  []byte
}

type rariblePackedOrigin struct {
	Account common.Address
	Value   *big.Int
}

var raribleOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "maker", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "takeValue", Type: "uint256"},
	{Name: "makeValue", Type: "uint256"},
	{Name: "salt", Type: "uint256"},
	{Name: "originFees", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "account", Type: "address"},
		{Name: "value", Type: "uint96"},
	}},
	{Name: "signature", Type: "bytes"},
}...)}}

// Rarible fills Rarible V2 orders through the Rarible module.
type Rarible struct {
	module common.Address
}

// NewRarible creates the Rarible adapter.
func NewRarible(addrs Addresses) *Rarible {
	return &Rarible{module: addrs.RaribleModule}
}

func (r *Rarible) Kind() domain.OrderKind { return domain.KindRarible }

func (r *Rarible) Module() common.Address { return r.module }

func (r *Rarible) Traits() Traits {
	return Traits{CurrencyFlexible: true, BatchFills: true}
}

func (r *Rarible) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := r.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.TakeValue)
	if err != nil {
		return nil, fmt.Errorf("rarible: takeValue: %w", err)
	}
	return price, nil
}

func (r *Rarible) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := r.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("rarible: pack listings: %w", err)
	}
	return fragment(r.module, data, fc.Currency, fc.Amount), nil
}

func (r *Rarible) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := r.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("rarible: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: r.module, Data: data, Value: new(big.Int)}, nil
}

func (r *Rarible) decode(req *domain.FillRequest) (*raribleOrder, error) {
	var o raribleOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("rarible: decode order: %w", err)
	}
	return &o, nil
}

func (r *Rarible) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := r.decode(req)
	if err != nil {
		return nil, err
	}
	takeValue, err := parseBig(o.TakeValue)
	if err != nil {
		return nil, fmt.Errorf("rarible: takeValue: %w", err)
	}
	makeValue := big.NewInt(1)
	if o.MakeValue != "" {
		if makeValue, err = parseBig(o.MakeValue); err != nil {
			return nil, fmt.Errorf("rarible: makeValue: %w", err)
		}
	}
	salt, err := parseBig(o.Salt)
	if err != nil {
		return nil, fmt.Errorf("rarible: salt: %w", err)
	}

	origins := make([]rariblePackedOrigin, 0, len(o.OriginFees))
	for _, of := range o.OriginFees {
		v, err := parseBig(of.Value)
		if err != nil {
			return nil, fmt.Errorf("rarible: origin fee: %w", err)
		}
		origins = append(origins, rariblePackedOrigin{Account: of.Account, Value: v})
	}

	return raribleOrderArgs.Pack(rariblePacked{
		Maker:      o.Maker,
		Token:      req.Contract,
		TokenID:    req.TokenID,
		TakeValue:  takeValue,
		MakeValue:  makeValue,
		Salt:       salt,
		OriginFees: origins,
		Signature:  o.Signature,
	})
}
