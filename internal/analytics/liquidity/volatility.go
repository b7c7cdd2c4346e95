package liquidity

import (
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/pumpstream/internal/domain"
)

// VolatilityPct computes the standard deviation of consecutive
// percentage price returns across ticks (oldest first), expressed as a
// percentage, feeding the quality scorer's volatility component.
func VolatilityPct(ticks []domain.PriceTick) float64 {
	if len(ticks) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		prev := ticks[i-1].PriceUSD
		if prev <= 0 {
			continue
		}
		returns = append(returns, (ticks[i].PriceUSD-prev)/prev*100)
	}
	if len(returns) < 2 {
		return 0
	}

	return stat.StdDev(returns, nil)
}
