package adapter

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// moduleABIJSON is the shared surface of the router modules. Every module
// decodes its protocol's orders from the opaque bytes blobs; the params and
// fees tuples are common across modules.
const moduleABIJSON = `[
  {"type":"function","name":"fillListings","inputs":[
    {"name":"orders","type":"bytes[]"},
    {"name":"params","type":"tuple","components":[
      {"name":"fillTo","type":"address"},
      {"name":"refundTo","type":"address"},
      {"name":"revertIfIncomplete","type":"bool"},
      {"name":"token","type":"address"},
      {"name":"amount","type":"uint256"}]},
    {"name":"fees","type":"tuple[]","components":[
      {"name":"recipient","type":"address"},
      {"name":"amount","type":"uint256"}]}]},
  {"type":"function","name":"fillListing","inputs":[
    {"name":"order","type":"bytes"},
    {"name":"params","type":"tuple","components":[
      {"name":"fillTo","type":"address"},
      {"name":"refundTo","type":"address"},
      {"name":"revertIfIncomplete","type":"bool"},
      {"name":"token","type":"address"},
      {"name":"amount","type":"uint256"}]},
    {"name":"fees","type":"tuple[]","components":[
      {"name":"recipient","type":"address"},
      {"name":"amount","type":"uint256"}]}]},
  {"type":"function","name":"fillBid","inputs":[
    {"name":"order","type":"bytes"},
    {"name":"params","type":"tuple","components":[
      {"name":"fillTo","type":"address"},
      {"name":"refundTo","type":"address"},
      {"name":"revertIfIncomplete","type":"bool"}]},
    {"name":"fees","type":"tuple[]","components":[
      {"name":"recipient","type":"address"},
      {"name":"amount","type":"uint256"}]}]}
]`

var moduleABI = mustABI(moduleABIJSON)

// mustABI parses an ABI definition at package init time.
func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("adapter: bad abi definition: %v", err))
	}
	return parsed
}

// mustType builds an abi.Type for ad-hoc argument packing.
func mustType(t string, components ...abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(fmt.Sprintf("adapter: bad abi type %s: %v", t, err))
	}
	return typ
}

// listingParams is the shared module parameter tuple for listing fills.
type listingParams struct {
	FillTo             common.Address
	RefundTo           common.Address
	RevertIfIncomplete bool
	Token              common.Address
	Amount             *big.Int
}

// bidParams is the shared module parameter tuple for bid fills.
type bidParams struct {
	FillTo             common.Address
	RefundTo           common.Address
	RevertIfIncomplete bool
}

// packListings encodes the shared fillListings / fillListing module call. A
// single order uses the single-order entry point for a smaller payload; the
// two are behaviorally identical on chain.
func packListings(orders [][]byte, fc FillContext) ([]byte, error) {
	params := listingParams{
		FillTo:             fc.Taker,
		RefundTo:           fc.RefundTo,
		RevertIfIncomplete: fc.RevertIfIncomplete,
		Token:              fc.Currency,
		Amount:             fc.Amount,
	}
	fees := packableFees(fc.Fees)

	if len(orders) == 1 {
		return moduleABI.Pack("fillListing", orders[0], params, fees)
	}
	return moduleABI.Pack("fillListings", orders, params, fees)
}

// packBid encodes the shared fillBid module call.
func packBid(order []byte, bc BidContext) ([]byte, error) {
	params := bidParams{
		FillTo:             bc.Taker,
		RefundTo:           bc.RefundTo,
		RevertIfIncomplete: bc.RevertIfIncomplete,
	}
	return moduleABI.Pack("fillBid", order, params, packableFees(bc.Fees))
}

// packableFees converts fees to the packing-friendly tuple slice, replacing a
// nil slice with an empty one so abi encoding never sees nil.
func packableFees(fees []domain.Fee) []domain.Fee {
	if fees == nil {
		return []domain.Fee{}
	}
	return fees
}

// parseBig parses a decimal or 0x-prefixed integer string as used in order
// payloads. Big numbers travel as strings to preserve precision across JSON
// boundaries.
func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("adapter: empty integer field")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("adapter: malformed integer %q", s)
	}
	return v, nil
}

// fragment assembles an ExecutionFragment, attaching the native value the
// step needs from the taker: the aggregate amount when settling in ETH,
// nothing for ERC-20 settlements.
func fragment(module common.Address, data []byte, currency common.Address, amount *big.Int) domain.ExecutionFragment {
	value := new(big.Int)
	if currency == domain.Eth && amount != nil {
		value.Set(amount)
	}
	return domain.ExecutionFragment{Module: module, Data: data, Value: value}
}
