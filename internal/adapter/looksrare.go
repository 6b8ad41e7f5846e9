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

// looksRareOrder is the LooksRare v2 maker order payload. Listings settle in
// ETH, bids in WETH; the price is not divisible.
type looksRareOrder struct {
	Signer        common.Address `json:"signer"`
	Price         string         `json:"price"`
	StrategyID    string         `json:"strategyId"`
	OrderNonce    string         `json:"orderNonce"`
	SubsetNonce   string         `json:"subsetNonce"`
	StartTime     string         `json:"startTime"`
	EndTime       string         `json:"endTime"`
	MerkleRoot    common.Hash    `json:"merkleRoot,omitempty"`
	Signature     hexutil.Bytes  `json:"signature"`
}

type looksRarePacked struct {
	Signer      common.Address
	Collection  common.Address
	TokenID     *big.Int
	Price       *big.Int
	StrategyID  *big.Int
	OrderNonce  *big.Int
	SubsetNonce *big.Int
	StartTime   *big.Int
	EndTime     *big.Int
	MerkleRoot  [32]byte
	Signature   []byte
}

var looksRareOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "signer", Type: "address"},
	{Name: "collection", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "price", Type: "uint256"},
	{Name: "strategyID", Type: "uint256"},
	{Name: "orderNonce", Type: "uint256"},
	{Name: "subsetNonce", Type: "uint256"},
	{Name: "startTime", Type: "uint256"},
	{Name: "endTime", Type: "uint256"},
	{Name: "merkleRoot", Type: "bytes32"},
	{Name: "signature", Type: "bytes"},
}...)}}

// LooksRare fills LooksRare v2 maker orders through the LooksRare module.
type LooksRare struct {
	module common.Address
}

// NewLooksRare creates the LooksRare adapter.
func NewLooksRare(addrs Addresses) *LooksRare {
	return &LooksRare{module: addrs.LooksRareModule}
}

func (l *LooksRare) Kind() domain.OrderKind { return domain.KindLooksRare }

func (l *LooksRare) Module() common.Address { return l.module }

func (l *LooksRare) Traits() Traits {
	return Traits{BatchFills: true}
}

func (l *LooksRare) Price(req *domain.FillRequest) (*big.Int, error) {
	o, err := l.decode(req)
	if err != nil {
		return nil, err
	}
	price, err := parseBig(o.Price)
	if err != nil {
		return nil, fmt.Errorf("looks-rare-v2: price: %w", err)
	}
	return price, nil
}

func (l *LooksRare) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := l.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("looks-rare-v2: pack listings: %w", err)
	}
	return fragment(l.module, data, fc.Currency, fc.Amount), nil
}

func (l *LooksRare) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := l.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("looks-rare-v2: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: l.module, Data: data, Value: new(big.Int)}, nil
}

func (l *LooksRare) decode(req *domain.FillRequest) (*looksRareOrder, error) {
	var o looksRareOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("looks-rare-v2: decode order: %w", err)
	}
	return &o, nil
}

func (l *LooksRare) packOrder(req *domain.FillRequest) ([]byte, error) {
	o, err := l.decode(req)
	if err != nil {
		return nil, err
	}

	fields := map[string]*big.Int{}
	for name, raw := range map[string]string{
		"price": o.Price, "strategyId": o.StrategyID, "orderNonce": o.OrderNonce,
		"subsetNonce": o.SubsetNonce, "startTime": o.StartTime, "endTime": o.EndTime,
	} {
		v, err := parseBig(raw)
		if err != nil {
			return nil, fmt.Errorf("looks-rare-v2: %s: %w", name, err)
		}
		fields[name] = v
	}

	return looksRareOrderArgs.Pack(looksRarePacked{
		Signer:      o.Signer,
		Collection:  req.Contract,
		TokenID:     req.TokenID,
		Price:       fields["price"],
		StrategyID:  fields["strategyId"],
		OrderNonce:  fields["orderNonce"],
		SubsetNonce: fields["subsetNonce"],
		StartTime:   fields["startTime"],
		EndTime:     fields["endTime"],
		MerkleRoot:  [32]byte(o.MerkleRoot),
		Signature:   o.Signature,
	})
}
