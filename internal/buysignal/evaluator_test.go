package buysignal

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
)

func testConfig() config.Config {
	return config.Config{
		Thresholds:             config.DefaultCategoryThresholds(),
		MinLiquidityUSD:        7500,
		MaxTop10Percent:        30,
		MinSecurityScore:       60,
		BlacklistSecurityScore: 90,
		MaxBuyAttempts:         3,
	}
}

func completeToken() *domain.Token {
	now := time.Now()
	score := 75.0
	return &domain.Token{
		Address:             "mint1",
		Category:            domain.CategoryAim,
		CurrentMarketCapUSD: 40000,
		CurrentLiquidityUSD: 10000,
		Holders:             200,
		Top10Percent:        20,
		HolderLastUpdated:   &now,
		SolsnifferScore:     &score,
	}
}

func TestEvaluate_ReturnsNilWhenDataIncomplete(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())

	token := completeToken()
	token.SolsnifferScore = nil

	assert.Nil(t, e.Evaluate(token, nil, nil, time.Now()))
}

func TestEvaluate_PassesAllGates(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	signal := e.Evaluate(completeToken(), nil, nil, time.Now())

	require.NotNil(t, signal)
	assert.True(t, signal.Passed)
}

func TestEvaluate_FailsOnLowLiquidity(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()
	token.CurrentLiquidityUSD = 100

	signal := e.Evaluate(token, nil, nil, time.Now())
	require.NotNil(t, signal)
	assert.False(t, signal.Passed)
	assert.Equal(t, "liquidity below minimum", signal.Reason)
}

func TestEvaluate_FailsOnHighConcentration(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()
	token.Top10Percent = 90

	signal := e.Evaluate(token, nil, nil, time.Now())
	require.NotNil(t, signal)
	assert.False(t, signal.Passed)
	assert.Equal(t, "top10 concentration too high", signal.Reason)
}

func TestEvaluate_FailsOnBlacklistedSecurityScore(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()
	blacklisted := 90.0
	token.SolsnifferScore = &blacklisted

	signal := e.Evaluate(token, nil, nil, time.Now())
	require.NotNil(t, signal)
	assert.False(t, signal.Passed)
	assert.Equal(t, "security score blacklisted", signal.Reason)
}

func TestEvaluate_FailsOnLowSecurityScore(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()
	low := 40.0
	token.SolsnifferScore = &low

	signal := e.Evaluate(token, nil, nil, time.Now())
	require.NotNil(t, signal)
	assert.False(t, signal.Passed)
	assert.Equal(t, "security score too low", signal.Reason)
}

func TestEvaluate_NeverPassesGraduatedTokens(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()
	token.Category = domain.CategoryGraduated

	assert.Nil(t, e.Evaluate(token, nil, nil, time.Now()))
}

func TestEvaluate_SuppressedAfterMaxAttempts(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()
	token.BuyAttempts = 3

	signal := e.Evaluate(token, nil, nil, time.Now())
	require.NotNil(t, signal)
	assert.False(t, signal.Passed)
	assert.Equal(t, "max buy attempts reached", signal.Reason)
}

func TestEvaluate_ConfidenceRisesWithQualityAndMomentum(t *testing.T) {
	e := New(testConfig(), zerolog.Nop())
	token := completeToken()

	base := e.Evaluate(token, nil, nil, time.Now())
	require.NotNil(t, base)

	quality := &domain.LiquidityQualityScore{Suitability: domain.SuitabilityExcellent}
	growth := &domain.LiquidityGrowthMetrics{Momentum: domain.MomentumHigh}
	boosted := e.Evaluate(token, quality, growth, time.Now())
	require.NotNil(t, boosted)

	assert.Greater(t, boosted.Confidence, base.Confidence)
}
