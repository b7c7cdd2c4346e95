// Package liquidity implements the three liquidity-analytics
// subsystems: growth tracking, quality scoring, and milestone alerting.
// Growth tracking and milestone alerting keep their own per-token state
// (quality scoring is stateless), per the shared-resource policy that
// analytics subsystems never touch the stream manager's buffers.
package liquidity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/pumpstream/internal/domain"
)

// PriceHistoryReader reads recent price-tick history for a token,
// oldest first. Implemented against the time-series store; accepted
// here as an interface so growth-rate math can be tested without a
// database.
type PriceHistoryReader interface {
	RecentTicks(ctx context.Context, tokenAddress string, since time.Time) ([]domain.PriceTick, error)
}

const growthCacheFreshness = 5 * time.Minute

type growthCacheEntry struct {
	metrics  domain.LiquidityGrowthMetrics
	computedAt time.Time
}

// GrowthTracker computes rolling liquidity growth rates and a momentum
// classification per token, with a 5-minute cache.
type GrowthTracker struct {
	reader PriceHistoryReader
	log    zerolog.Logger

	cacheMu sync.RWMutex
	cache   map[string]growthCacheEntry
}

func NewGrowthTracker(reader PriceHistoryReader, log zerolog.Logger) *GrowthTracker {
	return &GrowthTracker{
		reader: reader,
		log:    log.With().Str("component", "liquidity.GrowthTracker").Logger(),
		cache:  make(map[string]growthCacheEntry),
	}
}

// Compute returns the cached metrics if younger than 5 minutes,
// otherwise recomputes from price history.
func (g *GrowthTracker) Compute(ctx context.Context, tokenAddress string, now time.Time) (*domain.LiquidityGrowthMetrics, error) {
	g.cacheMu.RLock()
	entry, ok := g.cache[tokenAddress]
	g.cacheMu.RUnlock()
	if ok && now.Sub(entry.computedAt) < growthCacheFreshness {
		metrics := entry.metrics
		return &metrics, nil
	}

	ticks, err := g.reader.RecentTicks(ctx, tokenAddress, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	metrics := computeGrowthMetrics(tokenAddress, ticks, now)

	g.cacheMu.Lock()
	g.cache[tokenAddress] = growthCacheEntry{metrics: metrics, computedAt: now}
	g.cacheMu.Unlock()

	return &metrics, nil
}

// computeGrowthMetrics is a pure function over price history, kept
// separate from Compute so the growth-rate/momentum rules can be unit
// tested directly.
func computeGrowthMetrics(tokenAddress string, ticks []domain.PriceTick, now time.Time) domain.LiquidityGrowthMetrics {
	rate1h := averageGrowthRate(ticks, now.Add(-1*time.Hour), now)
	rate6h := averageGrowthRate(ticks, now.Add(-6*time.Hour), now)
	rate24h := averageGrowthRate(ticks, now.Add(-24*time.Hour), now)

	peak, peakAt := peakLiquidity(ticks)
	hoursSincePeak := 0.0
	if !peakAt.IsZero() {
		hoursSincePeak = now.Sub(peakAt).Hours()
	}

	momentum := classifyMomentum(rate1h, rate6h, rate24h)

	return domain.LiquidityGrowthMetrics{
		TokenAddress:     tokenAddress,
		Rate1h:           rate1h,
		Rate6h:           rate6h,
		Rate24h:          rate24h,
		Momentum:         momentum,
		Accelerating:     rate1h > rate6h && rate1h > 0,
		PeakLiquiditySOL: peak,
		HoursSincePeak:   hoursSincePeak,
		ComputedAt:       now,
	}
}

// classifyMomentum applies the rules from the component design exactly.
func classifyMomentum(rate1h, rate6h, rate24h float64) domain.Momentum {
	switch {
	case rate1h > 5 && rate1h > rate6h,
		rate1h > 2 && rate6h > 1 && rate1h > 1.5*rate6h:
		return domain.MomentumHigh
	case rate1h < 0 && rate6h < 0,
		rate1h < rate6h && rate6h < rate24h && rate1h < 1:
		return domain.MomentumDeclining
	case rate1h >= 1:
		return domain.MomentumMedium
	default:
		return domain.MomentumLow
	}
}

// averageGrowthRate fits a linear regression of liquidity-SOL against
// elapsed hours over ticks within [since, now], returning the slope in
// SOL/hour. Uses gonum's least-squares line fit rather than a naive
// endpoint difference, so a single outlier tick doesn't dominate the
// rate.
func averageGrowthRate(ticks []domain.PriceTick, since, now time.Time) float64 {
	var xs, ys []float64
	for _, t := range ticks {
		if t.Time.Before(since) || t.Time.After(now) {
			continue
		}
		xs = append(xs, now.Sub(t.Time).Hours()*-1)
		ys = append(ys, float64(t.RealSOLReserves)/1e9)
	}
	if len(xs) < 2 {
		return 0
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

func peakLiquidity(ticks []domain.PriceTick) (peak float64, at time.Time) {
	for _, t := range ticks {
		liquiditySOL := float64(t.RealSOLReserves) / 1e9
		if liquiditySOL > peak {
			peak = liquiditySOL
			at = t.Time
		}
	}
	return peak, at
}
