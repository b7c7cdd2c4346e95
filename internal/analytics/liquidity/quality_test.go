package liquidity

import (
	"testing"
	"time"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWeights() config.Config {
	return config.Config{
		QualityWeightLiquidity:     0.4,
		QualityWeightVolume:        0.25,
		QualityWeightVolatility:    0.15,
		QualityWeightConcentration: 0.2,
	}
}

func TestScore_MonotoneInLiquidity(t *testing.T) {
	scorer := NewQualityScorer(testWeights())
	now := time.Now()

	low := scorer.Score("mint1", QualityInputs{LiquidityUSD: 1_000}, now)
	high := scorer.Score("mint1", QualityInputs{LiquidityUSD: 90_000}, now)

	require.True(t, high.Score > low.Score)
}

func TestScore_InverselyMonotoneInConcentration(t *testing.T) {
	scorer := NewQualityScorer(testWeights())
	now := time.Now()

	concentrated := scorer.Score("mint1", QualityInputs{Top10Percent: 80}, now)
	diffuse := scorer.Score("mint1", QualityInputs{Top10Percent: 5}, now)

	require.True(t, diffuse.Score > concentrated.Score)
}

func TestScore_ClampedToRange(t *testing.T) {
	scorer := NewQualityScorer(testWeights())
	now := time.Now()

	result := scorer.Score("mint1", QualityInputs{LiquidityUSD: 1e9, Volume24hUSD: 1e9}, now)

	assert.LessOrEqual(t, result.Score, 100.0)
	assert.GreaterOrEqual(t, result.Score, 0.0)
}
