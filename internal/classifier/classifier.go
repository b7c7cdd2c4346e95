// Package classifier assigns a token's lifecycle category from its
// current USD market cap and records transitions.
package classifier

import (
	"time"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
)

// Classifier is a pure band-lookup over config.CategoryThresholds. It
// holds no per-token state; callers supply the previous category and
// receive the new one plus an optional transition record.
type Classifier struct {
	thresholds config.CategoryThresholds
}

// New builds a Classifier from the given thresholds.
func New(thresholds config.CategoryThresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// BandFor returns the category containing marketCapUSD, or "" if
// marketCapUSD is below the entry threshold (in which case the token is
// not persisted at all).
func (c *Classifier) BandFor(marketCapUSD float64) domain.Category {
	switch {
	case marketCapUSD < c.thresholds.EntryUSD:
		return ""
	case marketCapUSD < c.thresholds.MediumUSD:
		return domain.CategoryLow
	case marketCapUSD < c.thresholds.HighUSD:
		return domain.CategoryMedium
	case marketCapUSD < c.thresholds.AimUSD:
		return domain.CategoryHigh
	case marketCapUSD < c.thresholds.GraduatedUSD:
		return domain.CategoryAim
	default:
		return domain.CategoryGraduated
	}
}

// Reclassify compares the band for marketCapUSD against previous. If the
// band differs (a crossing occurred), it returns a CategoryTransition
// with reason "market_cap_threshold" ready to append to the log; the
// caller is responsible for persisting the token's new category. Returns
// (newCategory, transition, crossed).
func (c *Classifier) Reclassify(tokenAddress string, previous domain.Category, marketCapUSD float64, now time.Time) (domain.Category, *domain.CategoryTransition, bool) {
	next := c.BandFor(marketCapUSD)
	if next == previous {
		return next, nil, false
	}

	transition := &domain.CategoryTransition{
		TokenAddress: tokenAddress,
		FromCategory: previous,
		ToCategory:   next,
		MarketCapUSD: marketCapUSD,
		Reason:       "market_cap_threshold",
		OccurredAt:   now,
	}
	return next, transition, true
}

// EntersActionableBand reports whether a transition crosses into AIM,
// the band in which holder and volume analysis should be enqueued.
func EntersActionableBand(transition *domain.CategoryTransition) bool {
	return transition != nil && transition.ToCategory == domain.CategoryAim
}
