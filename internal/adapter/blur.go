package adapter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// blurOrder is the Blur payload. Only the price is usable locally: Blur's
// exchange rejects calls routed through any intermediary contract, so the
// actual fill call data comes from Blur's generation service and is trusted
// wholesale when it covers at least one Blur order.
type blurOrder struct {
	Maker common.Address `json:"maker"`
	Price string         `json:"price"`
}

// Blur represents Blur orders inside the compiler. It never builds call
// data itself; the router batches Blur orders into an external call-data
// request and emits the returned transaction as-is.
type Blur struct{}

// NewBlur creates the Blur adapter.
func NewBlur() *Blur { return &Blur{} }

func (b *Blur) Kind() domain.OrderKind { return domain.KindBlur }

// Module returns the zero address: Blur fills never pass through a module.
func (b *Blur) Module() common.Address { return common.Address{} }

func (b *Blur) Traits() Traits {
	return Traits{ExternalCallData: true}
}

func (b *Blur) Price(req *domain.FillRequest) (*big.Int, error) {
	var o blurOrder
	if err := json.Unmarshal(req.Order, &o); err != nil {
		return nil, fmt.Errorf("blur: decode order: %w", err)
	}
	price, err := parseBig(o.Price)
	if err != nil {
		return nil, fmt.Errorf("blur: price: %w", err)
	}
	return price, nil
}

func (b *Blur) BuildListingFill(reqs []*domain.FillRequest, fc FillContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("blur: %w: call data must come from the generation service", domain.ErrOrderUnfillable)
}

func (b *Blur) BuildBidFill(req *domain.FillRequest, bc BidContext) (domain.ExecutionFragment, error) {
	return domain.ExecutionFragment{}, fmt.Errorf("blur: %w: call data must come from the generation service", domain.ErrOrderUnfillable)
}
