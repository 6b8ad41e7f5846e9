package adapter

import "github.com/ethereum/go-ethereum/common"

// Addresses collects every on-chain contract the adapters encode calls
// against: the per-protocol router modules and, where direct fills exist, the
// exchange contracts themselves. Zero values fall back to mainnet defaults.
type Addresses struct {
	// Outer dispatcher executing fragment arrays in order.
	Router common.Address

	// Currency conversion module feeding downstream fill fragments.
	SwapModule common.Address

	// Router modules.
	SeaportModule    common.Address
	LooksRareModule  common.Address
	X2Y2Module       common.Address
	ZeroExV4Module   common.Address
	ElementModule    common.Address
	SudoswapModule   common.Address
	NFTXModule       common.Address
	ZoraModule       common.Address
	RaribleModule    common.Address
	FoundationModule common.Address
	UniverseModule   common.Address
	ForwardModule    common.Address
	FlowModule       common.Address
	InfinityModule   common.Address

	// Native exchanges (direct fills and single-order-only protocols).
	SeaportExchange   common.Address
	ZeroExV4Exchange  common.Address
	ManifoldExchange  common.Address
	SuperRareExchange common.Address
	CryptoPunksMarket common.Address

	WETH common.Address
}

// MainnetAddresses returns the Ethereum mainnet deployment set.
func MainnetAddresses() Addresses {
	return Addresses{
		Router:     common.HexToAddress("0x178A86D36D89c7FDeBeA90b739605da7B131ff6A"),
		SwapModule: common.HexToAddress("0x4C2035D2a12d75913dd58A4Ce24ba5Db5b53E1EF"),

		SeaportModule:    common.HexToAddress("0x20794EF7693441799a3f38fCC22a12b3E04b9572"),
		LooksRareModule:  common.HexToAddress("0x385Df8Cbc196F5f780367f3CdC96af072a916F7e"),
		X2Y2Module:       common.HexToAddress("0x613D3C588F6B8F89302b463F8F19f7241b2857E2"),
		ZeroExV4Module:   common.HexToAddress("0x29FcAc61d9b2a3c55f3E1149D0278126c31aBE74"),
		ElementModule:    common.HexToAddress("0x97716f66c253a04eDE68CE44a6c19264b92a2043"),
		SudoswapModule:   common.HexToAddress("0x79aBbfDF20fc6dD0C51693bF9A481F7351a70fD2"),
		NFTXModule:       common.HexToAddress("0x27eb35119DDA39df73db6681019edc4C16311acc"),
		ZoraModule:       common.HexToAddress("0x982b49De82A3ea5b8c42895482d9dD9bFEFadf82"),
		RaribleModule:    common.HexToAddress("0xA29d7914CD525dEA9afAD0dceEc6f49404476486"),
		FoundationModule: common.HexToAddress("0x5c8a351d4ff680203e05af56cb9D748898c7b39A"),
		UniverseModule:   common.HexToAddress("0x709a19a2398b90E09541E837622e5794D1F91e1A"),
		ForwardModule:    common.HexToAddress("0xfdB9b84D22D28AD0b83E6D1C52086Cd7a1b9d11e"),
		FlowModule:       common.HexToAddress("0x3b76C4E2A77d38336A7E97e0bE5cA1bFe79A50D6"),
		InfinityModule:   common.HexToAddress("0x599966aA8d40dCB2E9E5C19f1f532a35ACA06CD3"),

		SeaportExchange:   common.HexToAddress("0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC"),
		ZeroExV4Exchange:  common.HexToAddress("0xDef1C0ded9bec7F1a1670819833240f027b25EfF"),
		ManifoldExchange:  common.HexToAddress("0x3A3548e060Be10c2614d0a4Cb0c03CC9093fD799"),
		SuperRareExchange: common.HexToAddress("0x6D7c44773C52D396F43c2D511B81aa168E9a7a42"),
		CryptoPunksMarket: common.HexToAddress("0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB"),

		WETH: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	}
}
