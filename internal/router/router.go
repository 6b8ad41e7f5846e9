// Package router implements the execution compiler: it partitions a batch of
// fill requests by protocol and currency, resolves externally-hosted order
// data, synthesizes currency swaps, and packages everything into transaction
// bundles with per-order success flags.
//
// Fragment dependencies are positional. The on-chain dispatcher executes the
// fragment array strictly in order, so a swap fragment funds downstream fill
// fragments purely by being placed before them. There is no dependency graph.
package router

import (
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/adapter"
	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/platform/blur"
	"github.com/alanyoungcy/nftagg/internal/platform/opensea"
	"github.com/alanyoungcy/nftagg/internal/swap"
)

// dispatcherABI is the outer router contract's entry point. Each execution is
// one fragment; the dispatcher invokes them in array order and forwards each
// fragment's value.
var dispatcherABI = mustDispatcherABI(`[
	{"type":"function","name":"execute","stateMutability":"payable","inputs":[
		{"name":"executions","type":"tuple[]","components":[
			{"name":"module","type":"address"},
			{"name":"data","type":"bytes"},
			{"name":"value","type":"uint256"}]}]}
]`)

func mustDispatcherABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("router: bad abi definition: %v", err))
	}
	return parsed
}

type packedExecution struct {
	Module common.Address
	Data   []byte
	Value  *big.Int
}

// Config wires the router's collaborators. Orders and Calldata may be nil
// when the corresponding protocols will never appear in a batch.
type Config struct {
	Registry  *adapter.Registry
	Orders    *opensea.Client
	Calldata  *blur.Client
	Swaps     *swap.Synthesizer
	Addresses adapter.Addresses
	ChainID   int64
	Logger    *slog.Logger

	// PermitDeadline bounds permit validity from compile time. Zero means
	// 30 minutes.
	PermitDeadline time.Duration
}

// Router compiles fill batches into transaction bundles.
type Router struct {
	registry       *adapter.Registry
	orders         *opensea.Client
	calldata       *blur.Client
	swaps          *swap.Synthesizer
	addrs          adapter.Addresses
	logger         *slog.Logger
	permits        *permitBuilder
	permitDeadline time.Duration
}

// New creates a Router from its collaborators.
func New(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	deadline := cfg.PermitDeadline
	if deadline <= 0 {
		deadline = 30 * time.Minute
	}
	return &Router{
		registry:       cfg.Registry,
		orders:         cfg.Orders,
		calldata:       cfg.Calldata,
		swaps:          cfg.Swaps,
		addrs:          cfg.Addresses,
		logger:         logger.With("component", "router"),
		permits:        newPermitBuilder(cfg.ChainID, cfg.Addresses.Router),
		permitDeadline: deadline,
	}
}

// packageDispatch encodes the outer dispatcher call for the surviving
// fragments. The transaction's value is the sum of all fragment values.
func (r *Router) packageDispatch(from common.Address, fragments []domain.ExecutionFragment) (domain.TxPayload, error) {
	executions := make([]packedExecution, 0, len(fragments))
	value := new(big.Int)
	for _, f := range fragments {
		v := f.Value
		if v == nil {
			v = new(big.Int)
		}
		executions = append(executions, packedExecution{
			Module: f.Module,
			Data:   f.Data,
			Value:  v,
		})
		value.Add(value, v)
	}

	data, err := dispatcherABI.Pack("execute", executions)
	if err != nil {
		return domain.TxPayload{}, fmt.Errorf("router: pack dispatch: %w", err)
	}
	return domain.TxPayload{
		From:  from,
		To:    r.addrs.Router,
		Data:  data,
		Value: value,
	}, nil
}

// packageDirect wraps a single fragment as a transaction sent straight to its
// module, bypassing the dispatcher.
func packageDirect(from common.Address, f domain.ExecutionFragment) domain.TxPayload {
	value := f.Value
	if value == nil {
		value = new(big.Int)
	}
	return domain.TxPayload{
		From:  from,
		To:    f.Module,
		Data:  f.Data,
		Value: value,
	}
}

// sender returns the address the compiled transaction should be sent from.
func sender(taker, relayer common.Address) common.Address {
	if relayer != (common.Address{}) {
		return relayer
	}
	return taker
}
