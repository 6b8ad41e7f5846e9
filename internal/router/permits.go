package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// EIP-712 type hashes for the batch transfer permit accepted by the router.
var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	permitDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// PermitBatchTransfer(address owner,address spender,Transfer[] transfers,uint256 nonce,uint256 deadline)
	permitBatchTypeHash = ethcrypto.Keccak256(
		[]byte("PermitBatchTransfer(address owner,address spender,Transfer[] transfers,uint256 nonce,uint256 deadline)Transfer(address token,uint256 tokenId,uint256 amount,address recipient)"),
	)

	// Transfer(address token,uint256 tokenId,uint256 amount,address recipient)
	permitTransferTypeHash = ethcrypto.Keccak256(
		[]byte("Transfer(address token,uint256 tokenId,uint256 amount,address recipient)"),
	)
)

// permitBuilder produces the batch transfer authorization signed once per
// transaction. One permit covers every token movement implied by the
// transaction's successful fills; the caller signs the digest out of band.
type permitBuilder struct {
	chainID   int64
	spender   common.Address
	domainSep []byte
}

func newPermitBuilder(chainID int64, spender common.Address) *permitBuilder {
	b := &permitBuilder{chainID: chainID, spender: spender}
	b.domainSep = ethcrypto.Keccak256(concatBytes(
		permitDomainTypeHash,
		ethcrypto.Keccak256([]byte("NFTAggRouter")),
		ethcrypto.Keccak256([]byte("1")),
		bigIntTo32Bytes(big.NewInt(chainID)),
		common.LeftPadBytes(spender.Bytes(), 32),
	))
	return b
}

// build assembles the permit for the given transfers and computes its
// EIP-712 digest.
func (b *permitBuilder) build(owner common.Address, transfers []domain.PermitTransfer, nonce, deadline *big.Int) domain.Permit {
	hashes := make([]byte, 0, len(transfers)*32)
	for _, t := range transfers {
		tokenID := t.TokenID
		if tokenID == nil {
			tokenID = new(big.Int)
		}
		h := ethcrypto.Keccak256(concatBytes(
			permitTransferTypeHash,
			common.LeftPadBytes(t.Token.Bytes(), 32),
			bigIntTo32Bytes(tokenID),
			bigIntTo32Bytes(t.Amount),
			common.LeftPadBytes(t.Recipient.Bytes(), 32),
		))
		hashes = append(hashes, h...)
	}

	structHash := ethcrypto.Keccak256(concatBytes(
		permitBatchTypeHash,
		common.LeftPadBytes(owner.Bytes(), 32),
		common.LeftPadBytes(b.spender.Bytes(), 32),
		ethcrypto.Keccak256(hashes),
		bigIntTo32Bytes(nonce),
		bigIntTo32Bytes(deadline),
	))

	digest := ethcrypto.Keccak256(concatBytes(
		[]byte{0x19, 0x01},
		b.domainSep,
		structHash,
	))

	return domain.Permit{
		Owner:     owner,
		Spender:   b.spender,
		Transfers: transfers,
		Nonce:     nonce,
		Deadline:  deadline,
		Digest:    digest,
	}
}

func concatBytes(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func bigIntTo32Bytes(v *big.Int) []byte {
	if v == nil {
		v = new(big.Int)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}
