package domain

import (
	"encoding/json"
	"time"
)

// Token is the identity record for a tracked mint, keyed by address.
//
// Invariants: Address is immutable once set. Category is strictly derived
// from CurrentMarketCapUSD except that a token whose market cap never
// reached the entry threshold is never persisted at all. Once
// FirstSeenAboveThreshold is set it is never cleared. BelowThresholdSince
// is non-nil iff CurrentMarketCapUSD is currently below the entry
// threshold.
type Token struct {
	Address string

	Symbol      string
	Name        string
	Description string
	ImageURL    string

	Category Category

	CurrentPriceSOL     float64
	CurrentPriceUSD     float64
	CurrentMarketCapUSD float64
	CurrentLiquiditySOL float64
	CurrentLiquidityUSD float64
	CurveProgress       float64

	BondingCurveAddress string
	Creator             string

	CreatedAt               time.Time
	FirstSeenAboveThreshold time.Time
	BelowThresholdSince     *time.Time
	LastPriceUpdate         time.Time

	Holders             int
	Top10Percent        float64
	Top25Percent        float64
	HolderDistribution  json.RawMessage
	HolderLastUpdated   *time.Time

	SolsnifferScore     *float64
	SolsnifferCheckedAt *time.Time
	SecurityData        json.RawMessage

	BuyAttempts int
}

// IsGraduated reports whether the token has reached the terminal
// GRADUATED category, after which it is no longer considered for buy
// signals.
func (t *Token) IsGraduated() bool {
	return t.Category == CategoryGraduated
}

// CategoryTransition is an append-only log row recording a crossing of
// the lifecycle classifier's market-cap bands.
type CategoryTransition struct {
	TokenAddress  string
	FromCategory  Category
	ToCategory    Category
	MarketCapUSD  float64
	Reason        string
	OccurredAt    time.Time
}

// PriceTick is a time-series row keyed by (TokenAddress, Time).
//
// Invariant: (TokenAddress, Time) is unique; when duplicates arrive in
// the same flush the tick with the highest Slot survives.
type PriceTick struct {
	TokenAddress string
	Time         time.Time

	PriceUSD float64
	PriceSOL float64

	VirtualSOLReserves   uint64
	VirtualTokenReserves uint64
	RealSOLReserves      uint64
	RealTokenReserves    uint64

	MarketCapUSD float64
	LiquidityUSD float64

	Slot   uint64
	Source string
}

// TransactionType enumerates the kinds of on-chain activity recorded
// against a token.
type TransactionType string

const (
	TransactionCreate TransactionType = "create"
	TransactionBuy    TransactionType = "buy"
	TransactionSell   TransactionType = "sell"
)

// Transaction is a row keyed by (Signature, TokenAddress, Time).
//
// Invariant: (Signature, TokenAddress, Time) is unique; a `create`
// transaction exists at most once per token.
type Transaction struct {
	Signature    string
	TokenAddress string
	Time         time.Time

	Type TransactionType

	TokenAmount float64
	SOLAmount   float64
	PriceUSD    float64
	PriceSOL    float64

	UserAddress string
	Fee         uint64
	Slot        uint64
}
