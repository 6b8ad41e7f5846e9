package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// nftxOrder is the NFTX payload: the vault to redeem from and per-token
// quotes (vault token cost converted to currency, premium and slippage
// included). Quotes are keyed by token id, same as Sudoswap.
type nftxOrder struct {
	Vault   common.Address  `json:"vault"`
	VaultID string          `json:"vaultId"`
	Quotes  []sudoswapQuote `json:"quotes"`
}

type nftxPacked struct {
	Vault   common.Address
	VaultID *big.Int
	Token   common.Address
	TokenID *big.Int
	Price   *big.Int
}

var nftxOrderArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
	{Name: "vault", Type: "address"},
	{Name: "vaultID", Type: "uint256"},
	{Name: "token", Type: "address"},
	{Name: "tokenID", Type: "uint256"},
	{Name: "price", Type: "uint256"},
}...)}}

// NFTX redeems specific ids from NFTX vaults (listings) or mints into them
// (bids).
type NFTX struct {
	module common.Address
}

// NewNFTX creates the NFTX adapter.
func NewNFTX(addrs Addresses) *NFTX {
	return &NFTX{module: addrs.NFTXModule}
}

func (n *NFTX) Kind() domain.OrderKind { return domain.KindNFTX }

func (n *NFTX) Module() common.Address { return n.module }

func (n *NFTX) Traits() Traits {
	return Traits{BatchFills: true}
}

func (n *NFTX) Price(req *domain.FillRequest) (*big.Int, error) {
	_, _, price, err := n.quoteFor(req)
	return price, err
}

func (n *NFTX) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	orders := make([][]byte, 0, len(reqs))
	for _, req := range reqs {
		blob, err := n.packOrder(req)
		if err != nil {
			return domain.ExecutionFragment{}, err
		}
		orders = append(orders, blob)
	}
	data, err := packListings(orders, fc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("nftx: pack listings: %w", err)
	}
	return fragment(n.module, data, fc.Currency, fc.Amount), nil
}

func (n *NFTX) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	blob, err := n.packOrder(req)
	if err != nil {
		return domain.ExecutionFragment{}, err
	}
	data, err := packBid(blob, bc)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("nftx: pack bid: %w", err)
	}
	return domain.ExecutionFragment{Module: n.module, Data: data, Value: new(big.Int)}, nil
}

func (n *NFTX) quoteFor(req *domain.FillRequest) (common.Address, *big.Int, *big.Int, error) {
	var o nftxOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("nftx: decode order: %w", err)
	}
	vaultID, err := parseBig(o.VaultID)
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("nftx: vaultId: %w", err)
	}
	want := req.TokenID.String()
	for _, q := range o.Quotes {
		if q.TokenID != want {
			continue
		}
		price, err := parseBig(q.Price)
		if err != nil {
			return common.Address{}, nil, nil, fmt.Errorf("nftx: quote price: %w", err)
		}
		return o.Vault, vaultID, price, nil
	}
	return common.Address{}, nil, nil, fmt.Errorf("nftx: no quote for token %s in vault %s", want, o.Vault)
}

func (n *NFTX) packOrder(req *domain.FillRequest) ([]byte, error) {
	vault, vaultID, price, err := n.quoteFor(req)
	if err != nil {
		return nil, err
	}
	return nftxOrderArgs.Pack(nftxPacked{
		Vault:   vault,
		VaultID: vaultID,
		Token:   req.Contract,
		TokenID: req.TokenID,
		Price:   price,
	})
}
