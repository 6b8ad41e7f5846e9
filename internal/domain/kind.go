// Package domain defines the core data model for the fill router: fill
// requests, fees, execution fragments, swap and approval requirements, and
// the result bundle returned to callers.
package domain

// OrderKind identifies the exchange protocol an order belongs to. The set is
// closed: every kind has exactly one adapter registered for it.
type OrderKind string

const (
	KindSeaport     OrderKind = "seaport-v1.5"
	KindLooksRare   OrderKind = "looks-rare-v2"
	KindX2Y2        OrderKind = "x2y2"
	KindZeroExV4    OrderKind = "zeroex-v4"
	KindElement     OrderKind = "element"
	KindSudoswap    OrderKind = "sudoswap"
	KindNFTX        OrderKind = "nftx"
	KindZora        OrderKind = "zora-v3"
	KindRarible     OrderKind = "rarible"
	KindFoundation  OrderKind = "foundation"
	KindUniverse    OrderKind = "universe"
	KindForward     OrderKind = "forward"
	KindFlow        OrderKind = "flow"
	KindInfinity    OrderKind = "infinity"
	KindManifold    OrderKind = "manifold"
	KindSuperRare   OrderKind = "superrare"
	KindCryptoPunks OrderKind = "cryptopunks"
	KindBlur        OrderKind = "blur"
)

// AllKinds lists every supported protocol kind.
var AllKinds = []OrderKind{
	KindSeaport, KindLooksRare, KindX2Y2, KindZeroExV4, KindElement,
	KindSudoswap, KindNFTX, KindZora, KindRarible, KindFoundation,
	KindUniverse, KindForward, KindFlow, KindInfinity, KindManifold,
	KindSuperRare, KindCryptoPunks, KindBlur,
}

// ContractKind distinguishes single-unit (ERC-721) from multi-unit (ERC-1155)
// token contracts. Multi-unit orders may be partially filled by quantity where
// the protocol allows it.
type ContractKind string

const (
	ContractKindERC721  ContractKind = "erc721"
	ContractKindERC1155 ContractKind = "erc1155"
)

// Side indicates whether a fill request targets a listing (buy side for the
// taker) or a bid (sell side for the taker).
type Side string

const (
	SideListing Side = "listing"
	SideBid     Side = "bid"
)
