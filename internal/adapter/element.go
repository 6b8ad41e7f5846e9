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

// elementOrder is the Element order payload. Element descends from 0x v4 but
// keeps its own hash nonce and fee layout.
type elementOrder struct {
	Maker           common.Address `json:"maker"`
	Erc20Amount     string         `json:"erc20Amount"`
	TotalQuantity   string         `json:"totalQuantity,omitempty"`
	PlatformFees    []elementFee   `json:"platformFees,omitempty"`
	HashNonce       string         `json:"hashNonce"`
	Expiry          string         `json:"expiry"`
	Signature       hexutil.Bytes  `json:"signature"`
}

type elementFee struct {
	Recipient common.Address `json:"recipient"`
	Amount    string         `json:"amount"`
}

type elementPacked struct {
	Maker       common.Address
	Token       common.Address
	TokenID     *big.Int
	Erc20Amount *big.Int
	FillAmount  *big.Int
	Quantity    *big.Int
	Fees        []seaportPackedItem
	HashNonce   *big.Int
	Expiry      *big.Int
	Signature   []byte
}

var elementOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "maker", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "erc20Amount", Type: "uint256"},
	{Name: "fillAmount", Type: "uint256"},
	{Name: "quantity", Type: "uint256"},
	{Name: "fees", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "recipient", Type: "address"},
		{Name: "amount", Type: "uint256"},
	}},
	{Name: "hashNonce", Type: "uint256"},
	{Name: "expiry", Type: "uint256"},
	{Name: "signature", Type: "bytes"},
}...)}}

// Element fills Element orders through the Element module.
type Element struct {
	module common.Address
}

// NewElement creates the Element adapter.
func NewElement(addrs Addresses) *Element {
	return &Element{module: addrs.ElementModule}
}

func (e *Element) Kind() domain.OrderKind { return domain.KindElement }

func (e *Element) Module() common.Address { return e.module }

func (e *Element) Traits() Traits {
	return Traits{
		CurrencyFlexible: true,
		BatchFills:       true,
		Divisible:        true,
	}
}

func (e *Element) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := e.decode(req)
	if err != nil {
		return nil, err
	}
	base, err := parseBig(o.Erc20Amount)
	if err != nil {
		return nil, fmt.Errorf("element: erc20Amount: %w", err)
	}
	quantity, err := e.quantity(o)
	if err != nil {
		return nil, err
	}

	fill := req.FillAmount()
	total := pricing.ScaleAmount(base, fill, quantity, true)
	for _, f := range o.PlatformFees {
		amt, err := parseBig(f.Amount)
		if err != nil {
			return nil, fmt.Errorf("element: platform fee: %w", err)
		}
		total.Add(total, pricing.ScaleAmount(amt, fill, quantity, true))
	}
	return total, nil
}

func (e *Element) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := e.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("element: pack listings: %w", err)
	}
	return fragment(e.module, data, fc.Currency, fc.Amount), nil
}

func (e *Element) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := e.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("element: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: e.module, Data: data, Value: new(big.Int)}, nil
}

func (e *Element) decode(req *domain.FillRequest) (*elementOrder, error) {
	var o elementOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("element: decode order: %w", err)
	}
	return &o, nil
}

func (e *Element) quantity(o *elementOrder) (*big.Int, error) {
	if o.TotalQuantity == "" {
		return big.NewInt(1), nil
	}
	v, err := parseBig(o.TotalQuantity)
	if err != nil {
		return nil, fmt.Errorf("element: totalQuantity: %w", err)
	}
	return v, nil
}

func (e *Element) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := e.decode(req)
	if err != nil {
		return nil, err
	}
	base, err := parseBig(o.Erc20Amount)
	if err != nil {
		return nil, fmt.Errorf("element: erc20Amount: %w", err)
	}
	quantity, err := e.quantity(o)
	if err != nil {
		return nil, err
	}
	hashNonce, err := parseBig(o.HashNonce)
	if err != nil {
		return nil, fmt.Errorf("element: hashNonce: %w", err)
	}
	expiry, err := parseBig(o.Expiry)
	if err != nil {
		return nil, fmt.Errorf("element: expiry: %w", err)
	}

	fees := make([]seaportPackedItem, 0, len(o.PlatformFees))
	for _, f := range o.PlatformFees {
		amt, err := parseBig(f.Amount)
		if err != nil {
			return nil, fmt.Errorf("element: platform fee: %w", err)
		}
		fees = append(fees, seaportPackedItem{Recipient: f.Recipient, Amount: amt})
	}

	return elementOrderArgs.Pack(elementPacked{
		Maker:       o.Maker,
		Token:       req.Contract,
		TokenID:     req.TokenID,
		Erc20Amount: base,
		FillAmount:  req.FillAmount(),
		Quantity:    quantity,
		Fees:        fees,
		HashNonce:   hashNonce,
		Expiry:      expiry,
		Signature:   o.Signature,
	})
}
