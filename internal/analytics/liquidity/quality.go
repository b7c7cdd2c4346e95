package liquidity

import (
	"math"
	"time"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
)

// QualityInputs are the raw signals the scorer combines. Weighting is a
// policy choice (documented as an Open Question); the score is
// guaranteed monotone in LiquidityUSD and inversely monotone in
// Top10Percent and VolatilityPct, and is always clamped to [0, 100].
type QualityInputs struct {
	LiquidityUSD    float64
	Volume24hUSD    float64
	VolatilityPct   float64 // e.g. stddev of recent price returns, as a percentage
	Top10Percent    float64
}

// QualityScorer produces a 0-100 score and trading-suitability label.
type QualityScorer struct {
	weights config.Config
}

func NewQualityScorer(weights config.Config) *QualityScorer {
	return &QualityScorer{weights: weights}
}

// Score computes a LiquidityQualityScore for tokenAddress from inputs.
func (s *QualityScorer) Score(tokenAddress string, inputs QualityInputs, now time.Time) domain.LiquidityQualityScore {
	liquidityComponent := normalize(inputs.LiquidityUSD, 0, 100_000)
	volumeComponent := normalize(inputs.Volume24hUSD, 0, 200_000)
	volatilityComponent := 1 - normalize(inputs.VolatilityPct, 0, 100)
	concentrationComponent := 1 - normalize(inputs.Top10Percent, 0, 100)

	raw := s.weights.QualityWeightLiquidity*liquidityComponent +
		s.weights.QualityWeightVolume*volumeComponent +
		s.weights.QualityWeightVolatility*volatilityComponent +
		s.weights.QualityWeightConcentration*concentrationComponent

	score := clamp(raw*100, 0, 100)

	return domain.LiquidityQualityScore{
		TokenAddress: tokenAddress,
		Score:        score,
		Grade:        letterGrade(score),
		Suitability:  suitabilityFor(score),
		ComputedAt:   now,
	}
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	n := (v - lo) / (hi - lo)
	return clamp(n, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func letterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func suitabilityFor(score float64) domain.TradingSuitability {
	switch {
	case score >= 80:
		return domain.SuitabilityExcellent
	case score >= 60:
		return domain.SuitabilityGood
	case score >= 40:
		return domain.SuitabilityFair
	default:
		return domain.SuitabilityPoor
	}
}
