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

// zeroExOrder is the 0x v4 NFT order payload. Erc20TokenAmount is the price
// for NftAmount units; built-in fees are paid on top of it.
type zeroExOrder struct {
	Maker            common.Address `json:"maker"`
	Taker            common.Address `json:"taker"`
	Erc20TokenAmount string         `json:"erc20TokenAmount"`
	NftAmount        string         `json:"nftAmount,omitempty"`
	Fees             []zeroExFee    `json:"fees,omitempty"`
	Nonce            string         `json:"nonce"`
	Expiry           string         `json:"expiry"`
	Signature        hexutil.Bytes  `json:"signature"`
}

type zeroExFee struct {
	Recipient common.Address `json:"recipient"`
	Amount    string         `json:"amount"`
	FeeData   hexutil.Bytes  `json:"feeData,omitempty"`
}

type zeroExPacked struct {
	Maker            common.Address
	Taker            common.Address
	Token            common.Address
	TokenID          *big.Int
	Erc20TokenAmount *big.Int
	FillAmount       *big.Int
	NftAmount        *big.Int
	Fees             []zeroExPackedFee
	Nonce            *big.Int
	Expiry           *big.Int
	Signature        []byte
}

type zeroExPackedFee struct {
	Recipient common.Address
	Amount    *big.Int
	FeeData   []byte
}

var zeroExOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "maker", Type: "address"},
	{Name: "taker", Type: "address"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "erc20TokenAmount", Type: "uint256"},
	{Name: "fillAmount", Type: "uint256"},
	{Name: "nftAmount", Type: "uint256"},
	{Name: "fees", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "recipient", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "feeData", Type: "bytes"},
	}},
	{Name: "nonce", Type: "uint256"},
	{Name: "expiry", Type: "uint256"},
	{Name: "signature", Type: "bytes"},
}...)}}

var zeroExExchangeABI = mustABI(`[
  {"type":"function","name":"batchBuyNFTs","inputs":[
    {"name":"sellOrders","type":"bytes[]"},
    {"name":"recipient","type":"address"},
    {"name":"revertIfIncomplete","type":"bool"}]}
]`)

// ZeroExV4 fills 0x v4 NFT orders. Multi-unit (ERC-1155) orders are
// divisible; price and built-in fees scale by the filled fraction with
// ceiling rounding, matching the exchange's buy-side rounding.
type ZeroExV4 struct {
	module   common.Address
	exchange common.Address
}

// NewZeroExV4 creates the 0x v4 adapter.
func NewZeroExV4(addrs Addresses) *ZeroExV4 {
	return &ZeroExV4{module: addrs.ZeroExV4Module, exchange: addrs.ZeroExV4Exchange}
}

func (z *ZeroExV4) Kind() domain.OrderKind { return domain.KindZeroExV4 }

func (z *ZeroExV4) Module() common.Address { return z.module }

func (z *ZeroExV4) Traits() Traits {
	return Traits{
		CurrencyFlexible: true,
		BatchFills:       true,
		DirectBatch:      true,
		Divisible:        true,
	}
}

func (z *ZeroExV4) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := z.decode(req)
	if err != nil {
		return nil, err
	}
	base, err := parseBig(o.Erc20TokenAmount)
	if err != nil {
		return nil, fmt.Errorf("zeroex-v4: erc20TokenAmount: %w", err)
	}
	nftAmount, err := z.nftAmount(o)
	if err != nil {
		return nil, err
	}

	fill := req.FillAmount()
	total := pricing.ScaleAmount(base, fill, nftAmount, true)
	for _, f := range o.Fees {
		amt, err := parseBig(f.Amount)
		if err != nil {
			return nil, fmt.Errorf("zeroex-v4: fee amount: %w", err)
		}
		total.Add(total, pricing.ScaleAmount(amt, fill, nftAmount, true))
	}
	return total, nil
}

func (z *ZeroExV4) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := z.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}

	if fc.Direct {
		data, err := zeroExExchangeABI.Pack("batchBuyNFTs", orders, fc.Taker, fc.RevertIfIncomplete)
		if err != nil {
			return domain.ExecutionFragment{}, fmt.Errorf("zeroex-v4: pack direct fill: %w", err)
		}
		return fragment(z.exchange, data, fc.Currency, fc.Amount), nil
	}

	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("zeroex-v4: pack listings: %w", err)
	}
	return fragment(z.module, data, fc.Currency, fc.Amount), nil
}

func (z *ZeroExV4) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := z.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("zeroex-v4: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: z.module, Data: data, Value: new(big.Int)}, nil
}

func (z *ZeroExV4) decode(req *domain.FillRequest) (*zeroExOrder, error) {
	var o zeroExOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("zeroex-v4: decode order: %w", err)
	}
	return &o, nil
}

func (z *ZeroExV4) nftAmount(o *zeroExOrder) (*big.Int, error) {
	if o.NftAmount == "" {
		return big.NewInt(1), nil
	}
	v, err := parseBig(o.NftAmount)
	if err != nil {
		return nil, fmt.Errorf("zeroex-v4: nftAmount: %w", err)
	}
	return v, nil
}

func (z *ZeroExV4) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := z.decode(req)
	if err != nil {
		return nil, err
	}
	base, err := parseBig(o.Erc20TokenAmount)
	if err != nil {
		return nil, fmt.Errorf("zeroex-v4: erc20TokenAmount: %w", err)
	}
	nftAmount, err := z.nftAmount(o)
	if err != nil {
		return nil, err
	}
	nonce, err := parseBig(o.Nonce)
	if err != nil {
		return nil, fmt.Errorf("zeroex-v4: nonce: %w", err)
	}
	expiry, err := parseBig(o.Expiry)
	if err != nil {
		return nil, fmt.Errorf("zeroex-v4: expiry: %w", err)
	}

	fees := make([]zeroExPackedFee, 0, len(o.Fees))
	for _, f := range o.Fees {
		amt, err := parseBig(f.Amount)
		if err != nil {
			return nil, fmt.Errorf("zeroex-v4: fee amount: %w", err)
		}
		fees = append(fees, zeroExPackedFee{Recipient: f.Recipient, Amount: amt, FeeData: f.FeeData})
	}

	return zeroExOrderArgs.Pack(zeroExPacked{
		Maker:            o.Maker,
		Taker:            o.Taker,
		Token:            req.Contract,
		TokenID:          req.TokenID,
		Erc20TokenAmount: base,
		FillAmount:       req.FillAmount(),
		NftAmount:        nftAmount,
		Fees:             fees,
		Nonce:            nonce,
		Expiry:           expiry,
		Signature:        o.Signature,
	})
}
