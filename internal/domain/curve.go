package domain

// BondingCurveState is the decoded, fixed-layout on-chain account state
// for a pump.fun-style bonding curve.
//
// Invariant: Complete == true implies the token has graduated and no
// further trading via the curve is possible.
type BondingCurveState struct {
	Discriminator uint64

	VirtualSOLReserves   uint64
	VirtualTokenReserves uint64
	RealSOLReserves      uint64
	RealTokenReserves    uint64
	TokenTotalSupply     uint64

	Complete bool

	Mint string
}

// PricingValidity describes whether a PricingResult may be trusted for
// trading decisions.
type PricingValidity string

const (
	PricingValid   PricingValidity = "valid"
	PricingInvalid PricingValidity = "invalid"
)

// PricingResult is the canonical price/liquidity/market-cap derivation
// for a single BondingCurveState observation.
type PricingResult struct {
	PriceSOL     float64
	PriceUSD     float64
	MarketCapUSD float64
	LiquidityUSD float64
	CurveProgress float64

	Validity PricingValidity
	Warnings []string
}
