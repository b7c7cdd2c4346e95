package liquidity

import (
	"testing"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMilestoneTracker_CooldownScenario(t *testing.T) {
	tracker := NewMilestoneTracker(30*time.Minute, zerolog.Nop())
	base := time.Now()

	alert := tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 10_100, base)
	require.NotNil(t, alert)
	require.Equal(t, 10_000.0, alert.Threshold)

	// Drops below the rung, then re-crosses it 10 minutes later: still
	// within cooldown, no alert.
	tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 9_000, base.Add(5*time.Minute))
	alert = tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 10_200, base.Add(10*time.Minute))
	require.Nil(t, alert)

	// Drops again, re-crosses at 35 minutes: cooldown has elapsed.
	tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 9_500, base.Add(20*time.Minute))
	alert = tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 10_300, base.Add(35*time.Minute))
	require.NotNil(t, alert)
	require.Equal(t, 10_000.0, alert.Threshold)
}

func TestMilestoneTracker_GraduationIsCritical(t *testing.T) {
	tracker := NewMilestoneTracker(30*time.Minute, zerolog.Nop())
	alert := tracker.Evaluate("mint1", domain.LadderLiquiditySOL, SOLLiquidityLadder, 73, time.Now())
	require.NotNil(t, alert)
	require.Equal(t, domain.SeverityCritical, alert.Severity)
}

func TestMilestoneTracker_NoAlertWithoutCrossing(t *testing.T) {
	tracker := NewMilestoneTracker(30*time.Minute, zerolog.Nop())
	tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 3_000, time.Now())
	alert := tracker.Evaluate("mint1", domain.LadderLiquidityUSD, USDLiquidityLadder, 3_100, time.Now())
	require.Nil(t, alert)
}
