package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// punksOrder is the CryptoPunks payload: the punk's offer as stored in the
// marketplace contract.
type punksOrder struct {
	Seller common.Address `json:"seller"`
	Price  string         `json:"price"`
}

var punksMarketABI = mustABI(`[
  {"type":"function","name":"buyPunk","inputs":[
    {"name":"punkIndex","type":"uint256"}]}
]`)

// CryptoPunks buys punks directly from the original marketplace contract.
// The contract predates every token standard and cannot be called through an
// intermediary, so exactly one punk per transaction and never via the router.
type CryptoPunks struct {
	market common.Address
}

// NewCryptoPunks creates the CryptoPunks adapter.
func NewCryptoPunks(addrs Addresses) *CryptoPunks {
	return &CryptoPunks{market: addrs.CryptoPunksMarket}
}

func (c *CryptoPunks) Kind() domain.OrderKind { return domain.KindCryptoPunks }

func (c *CryptoPunks) Module() common.Address { return c.market }

func (c *CryptoPunks) Traits() Traits {
	return Traits{SingleOrderOnly: true}
}

func (c *CryptoPunks) Price(req *domain.FillRequest) (*big.Int, error) {
	var o punksOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("cryptopunks: decode order: %w", err)
	}
	price, err := parseBig(o.Price)
	if err != nil {
		return nil, fmt.Errorf("cryptopunks: price: %w", err)
	}
	return price, nil
}

func (c *CryptoPunks) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	if len(reqs) != 1 {
		return domain.ExecutionFragment{}, fmt.Errorf("cryptopunks: %w: one punk per transaction", domain.ErrUnsupportedBatch)
	}
	data, err := punksMarketABI.Pack("buyPunk", reqs[0].TokenID)
	if err != nil {
		return domain.ExecutionFragment{}, fmt.Errorf("cryptopunks: pack buyPunk: %w", err)
	}
	return fragment(c.market, data, fc.Currency, fc.Amount), nil
}

func (c *CryptoPunks) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("cryptopunks: %w: punk bids cannot be routed", domain.ErrOrderUnfillable)
}
