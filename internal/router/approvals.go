package router

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

var (
	erc20ABI = mustTokenABI(`[
		{"type":"function","name":"approve","inputs":[
			{"name":"spender","type":"address"},
			{"name":"amount","type":"uint256"}]}
	]`)

	erc721ABI = mustTokenABI(`[
		{"type":"function","name":"setApprovalForAll","inputs":[
			{"name":"operator","type":"address"},
			{"name":"approved","type":"bool"}]},
		{"type":"function","name":"safeTransferFrom","inputs":[
			{"name":"from","type":"address"},
			{"name":"to","type":"address"},
			{"name":"tokenId","type":"uint256"},
			{"name":"data","type":"bytes"}]}
	]`)

	erc1155ABI = mustTokenABI(`[
		{"type":"function","name":"safeTransferFrom","inputs":[
			{"name":"from","type":"address"},
			{"name":"to","type":"address"},
			{"name":"id","type":"uint256"},
			{"name":"amount","type":"uint256"},
			{"name":"data","type":"bytes"}]}
	]`)
)

func mustTokenABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("router: bad abi definition: %v", err))
	}
	return parsed
}

// erc20Approval builds the approval the owner needs so operator can pull
// amount units of token.
func erc20Approval(token, owner, operator common.Address, amount *big.Int) (domain.ApprovalRequirement, error) {
	data, err := erc20ABI.Pack("approve", operator, amount)
	if err != nil {
		return domain.ApprovalRequirement{}, fmt.Errorf("router: pack approve: %w", err)
	}
	return domain.ApprovalRequirement{
		Token:    token,
		Owner:    owner,
		Operator: operator,
		TxData:   data,
	}, nil
}

// nftApproval builds the operator grant the owner needs so operator can move
// tokens out of contract. setApprovalForAll covers both token standards.
func nftApproval(contract, owner, operator common.Address) (domain.ApprovalRequirement, error) {
	data, err := erc721ABI.Pack("setApprovalForAll", operator, true)
	if err != nil {
		return domain.ApprovalRequirement{}, fmt.Errorf("router: pack setApprovalForAll: %w", err)
	}
	return domain.ApprovalRequirement{
		Token:    contract,
		Owner:    owner,
		Operator: operator,
		TxData:   data,
	}, nil
}

// dedupeApprovals drops approvals identical by (owner, operator, calldata).
// Multiple orders regularly imply the same grant.
func dedupeApprovals(approvals []domain.ApprovalRequirement) []domain.ApprovalRequirement {
	out := make([]domain.ApprovalRequirement, 0, len(approvals))
	for _, a := range approvals {
		dup := false
		for _, kept := range out {
			if a.Same(kept) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

// nftTransferCall encodes a safe transfer of the order's token from the taker
// to the module, with the router call data embedded so the module's receive
// hook executes the fill in the same transaction.
func nftTransferCall(req *domain.FillRequest, taker, module common.Address, embedded []byte) ([]byte, error) {
	if req.ContractKind == domain.ContractKindERC1155 {
		data, err := erc1155ABI.Pack("safeTransferFrom", taker, module, req.TokenID, req.FillAmount(), embedded)
		if err != nil {
			return nil, fmt.Errorf("router: pack erc1155 transfer: %w", err)
		}
		return data, nil
	}
	data, err := erc721ABI.Pack("safeTransferFrom", taker, module, req.TokenID, embedded)
	if err != nil {
		return nil, fmt.Errorf("router: pack erc721 transfer: %w", err)
	}
	return data, nil
}
