// Package swap turns aggregated currency requirements into swap execution
// fragments. Requirements are grouped per liquidity pool before quoting so a
// single route funds every fill fragment that settles in the pool's output
// token.
package swap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/platform/uniswap"
)

const swapModuleABIJSON = `[
	{
		"name": "ethToExactOutput",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{"name": "swap", "type": "tuple", "components": [
				{"name": "params", "type": "tuple", "components": [
					{"name": "path", "type": "bytes"},
					{"name": "amountOut", "type": "uint256"},
					{"name": "amountInMaximum", "type": "uint256"}
				]},
				{"name": "transfers", "type": "tuple[]", "components": [
					{"name": "recipient", "type": "address"},
					{"name": "amount", "type": "uint256"},
					{"name": "toNative", "type": "bool"}
				]}
			]},
			{"name": "refundTo", "type": "address"}
		],
		"outputs": []
	},
	{
		"name": "erc20ToExactOutput",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "swap", "type": "tuple", "components": [
				{"name": "params", "type": "tuple", "components": [
					{"name": "path", "type": "bytes"},
					{"name": "amountOut", "type": "uint256"},
					{"name": "amountInMaximum", "type": "uint256"}
				]},
				{"name": "transfers", "type": "tuple[]", "components": [
					{"name": "recipient", "type": "address"},
					{"name": "amount", "type": "uint256"},
					{"name": "toNative", "type": "bool"}
				]}
			]},
			{"name": "refundTo", "type": "address"}
		],
		"outputs": []
	}
]`

var swapModuleABI = mustABI(swapModuleABIJSON)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("swap: parse abi: %v", err))
	}
	return parsed
}

type swapParams struct {
	Path            []byte
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

type swapTransfer struct {
	Recipient common.Address
	Amount    *big.Int
	ToNative  bool
}

type swapCall struct {
	Params    swapParams
	Transfers []swapTransfer
}

// Pool aggregates every SwapRequirement sharing one normalized
// (tokenIn, tokenOut) pair. TokenIn and TokenOut keep the requirement's exact
// tokens; normalization applies to grouping only.
type Pool struct {
	TokenIn   common.Address
	TokenOut  common.Address
	AmountOut *big.Int

	// Per-recipient fan-out of the swap output, in requirement order.
	Transfers []domain.SwapRequirement
}

// SourceIndexes returns the original order indexes funded by this pool.
func (p *Pool) SourceIndexes() []int {
	var out []int
	for _, t := range p.Transfers {
		out = append(out, t.SourceIndexes...)
	}
	return out
}

// FragmentIndexes returns the fill fragment positions depending on this pool.
func (p *Pool) FragmentIndexes() []int {
	out := make([]int, 0, len(p.Transfers))
	for _, t := range p.Transfers {
		out = append(out, t.DependsFragment)
	}
	return out
}

// Result is one synthesized swap. Fragment is nil when the swap was skipped
// because tokenIn and tokenOut are exactly identical; AmountIn then equals
// the pool's target output.
type Result struct {
	Fragment *domain.ExecutionFragment
	AmountIn *big.Int
}

// Synthesizer builds swap fragments from pooled requirements using an
// external liquidity-routing provider.
type Synthesizer struct {
	quotes *uniswap.Client
	module common.Address
	weth   common.Address
}

// NewSynthesizer creates a synthesizer targeting the given swap module.
func NewSynthesizer(quotes *uniswap.Client, module, weth common.Address) *Synthesizer {
	return &Synthesizer{quotes: quotes, module: module, weth: weth}
}

// Normalize maps the native-currency sentinel to its wrapped form. Used only
// to derive pool identities; never to decide whether a swap can be skipped.
func (s *Synthesizer) Normalize(token common.Address) common.Address {
	if token == domain.Eth {
		return s.weth
	}
	return token
}

// Aggregate groups requirements per normalized pool, preserving first-seen
// pool order and requirement order within each pool.
func (s *Synthesizer) Aggregate(reqs []domain.SwapRequirement) []*Pool {
	var pools []*Pool
	index := make(map[string]*Pool)

	for _, r := range reqs {
		key := s.Normalize(r.TokenIn).Hex() + ":" + s.Normalize(r.TokenOut).Hex()
		p, ok := index[key]
		if !ok {
			p = &Pool{
				TokenIn:   r.TokenIn,
				TokenOut:  r.TokenOut,
				AmountOut: new(big.Int),
			}
			index[key] = p
			pools = append(pools, p)
		}
		p.AmountOut = new(big.Int).Add(p.AmountOut, r.AmountOut)
		p.Transfers = append(p.Transfers, r)
	}
	return pools
}

// Synthesize quotes a route producing at least the pool's target output and
// encodes the swap fragment, fanning the output out to each dependent module
// with optional unwrap to native currency. Identical tokenIn and tokenOut
// short-circuits with no fragment.
func (s *Synthesizer) Synthesize(ctx context.Context, pool *Pool, refundTo common.Address) (*Result, error) {
	if pool.TokenIn == pool.TokenOut {
		return &Result{AmountIn: new(big.Int).Set(pool.AmountOut)}, nil
	}

	quote, err := s.quotes.QuoteExactOutput(ctx, s.Normalize(pool.TokenIn), s.Normalize(pool.TokenOut), pool.AmountOut)
	if err != nil {
		return nil, fmt.Errorf("swap: route %s->%s: %w", pool.TokenIn.Hex(), pool.TokenOut.Hex(), err)
	}

	call := swapCall{
		Params: swapParams{
			Path:            quote.Path,
			AmountOut:       pool.AmountOut,
			AmountInMaximum: quote.AmountIn,
		},
	}
	for _, t := range pool.Transfers {
		call.Transfers = append(call.Transfers, swapTransfer{
			Recipient: t.Recipient,
			Amount:    t.AmountOut,
			ToNative:  t.UnwrapToNative,
		})
	}

	method := "erc20ToExactOutput"
	value := new(big.Int)
	if pool.TokenIn == domain.Eth {
		method = "ethToExactOutput"
		value = new(big.Int).Set(quote.AmountIn)
	}

	data, err := swapModuleABI.Pack(method, call, refundTo)
	if err != nil {
		return nil, fmt.Errorf("swap: pack %s: %w", method, err)
	}

	return &Result{
		Fragment: &domain.ExecutionFragment{
			Module: s.module,
			Data:   data,
			Value:  value,
		},
		AmountIn: quote.AmountIn,
	}, nil
}
