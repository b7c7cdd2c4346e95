package liquidity

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/domain"
)

// Ladders are the configured one-way crossing thresholds. Values are
// ascending; Evaluate alerts on the highest rung crossed upward since
// the previous observation, subject to a per-(token, ladder, rung)
// cooldown.
var (
	USDLiquidityLadder       = []float64{2_500, 5_000, 7_500, 10_000, 15_000, 25_000, 50_000, 75_000, 100_000}
	SOLLiquidityLadder       = []float64{10, 20, 30, 40, 50, 60, 70, 73} // 73 == graduation
	GraduationProgressLadder = []float64{25, 50, 60, 70, 80, 85, 90, 95, 99}
	VelocityLadder           = []float64{1, 2, 5, 10, 15, 20, 30}
)

type milestoneKey struct {
	tokenAddress string
	ladder       domain.MilestoneLadder
	threshold    float64
}

type tokenLadderKey struct {
	tokenAddress string
	ladder       domain.MilestoneLadder
}

// MilestoneTracker maintains, per token and ladder, the last observed
// value (to detect an upward crossing) and the last alert time per rung
// (to enforce the cooldown).
type MilestoneTracker struct {
	cooldown time.Duration
	log      zerolog.Logger

	mu            sync.Mutex
	lastAlertAt   map[milestoneKey]time.Time
	previousValue map[tokenLadderKey]float64
}

func NewMilestoneTracker(cooldown time.Duration, log zerolog.Logger) *MilestoneTracker {
	return &MilestoneTracker{
		cooldown:      cooldown,
		log:           log.With().Str("component", "liquidity.MilestoneTracker").Logger(),
		lastAlertAt:   make(map[milestoneKey]time.Time),
		previousValue: make(map[tokenLadderKey]float64),
	}
}

// Evaluate checks value against ladderValues for tokenAddress and
// returns an alert if the highest rung crossed upward since the last
// observation is outside its cooldown window. Crossing multiple rungs
// in one observation still yields a single alert, for the highest rung
// crossed.
func (m *MilestoneTracker) Evaluate(tokenAddress string, ladder domain.MilestoneLadder, ladderValues []float64, value float64, now time.Time) *domain.MilestoneAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	tlKey := tokenLadderKey{tokenAddress: tokenAddress, ladder: ladder}
	previous := m.previousValue[tlKey]
	m.previousValue[tlKey] = value

	var crossedRung float64
	found := false
	for _, rung := range ladderValues {
		if previous < rung && value >= rung {
			crossedRung = rung
			found = true
		}
	}
	if !found {
		return nil
	}

	key := milestoneKey{tokenAddress: tokenAddress, ladder: ladder, threshold: crossedRung}
	if last, seen := m.lastAlertAt[key]; seen && now.Sub(last) < m.cooldown {
		return nil
	}

	m.lastAlertAt[key] = now

	return &domain.MilestoneAlert{
		TokenAddress: tokenAddress,
		Ladder:       ladder,
		Threshold:    crossedRung,
		Severity:     severityFor(ladder, crossedRung),
		OccurredAt:   now,
	}
}

func severityFor(ladder domain.MilestoneLadder, threshold float64) domain.AlertSeverity {
	switch ladder {
	case domain.LadderLiquiditySOL:
		if threshold >= 73 {
			return domain.SeverityCritical
		}
	case domain.LadderGraduationProgress:
		if threshold >= 95 {
			return domain.SeverityCritical
		}
		if threshold >= 80 {
			return domain.SeverityHigh
		}
	case domain.LadderLiquidityUSD:
		if threshold >= 50_000 {
			return domain.SeverityHigh
		}
	case domain.LadderVelocity:
		if threshold >= 20 {
			return domain.SeverityHigh
		}
	}
	return domain.SeverityMedium
}
