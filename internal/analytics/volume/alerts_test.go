package volume

import (
	"testing"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector() *AlertDetector {
	return NewAlertDetector(5, 10, 30*time.Minute, 3)
}

func TestEvaluateSpike_TriggersAtConfiguredMultiple(t *testing.T) {
	d := newDetector()
	now := time.Now()

	metrics1h := domain.VolumeMetrics{TotalUSD: 5000}
	metrics24h := domain.VolumeMetrics{TotalUSD: 24000} // avg = 1000/h, 5000 >= 5x

	alert := d.evaluateSpike("mint1", metrics1h, metrics24h, now)
	require.NotNil(t, alert)
	assert.Equal(t, domain.VolumeAlertSpike, alert.Kind)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
}

func TestEvaluateSpike_NoAlertBelowMultiple(t *testing.T) {
	d := newDetector()
	now := time.Now()

	metrics1h := domain.VolumeMetrics{TotalUSD: 2000}
	metrics24h := domain.VolumeMetrics{TotalUSD: 24000}

	assert.Nil(t, d.evaluateSpike("mint1", metrics1h, metrics24h, now))
}

func TestEvaluateImbalance_RequiresMinTxCount(t *testing.T) {
	d := newDetector()
	now := time.Now()

	metrics1h := domain.VolumeMetrics{TxCount: 5, BuyRatio: 0.95}
	assert.Nil(t, d.evaluateImbalance("mint1", metrics1h, now))
}

func TestEvaluateImbalance_TriggersOutsideBand(t *testing.T) {
	d := newDetector()
	now := time.Now()

	metrics1h := domain.VolumeMetrics{TxCount: 12, BuyRatio: 0.8}
	alert := d.evaluateImbalance("mint1", metrics1h, now)
	require.NotNil(t, alert)
	assert.Equal(t, domain.VolumeAlertImbalance, alert.Kind)
}

func TestEvaluateImbalance_NoAlertWithinBand(t *testing.T) {
	d := newDetector()
	now := time.Now()

	metrics1h := domain.VolumeMetrics{TxCount: 20, BuyRatio: 0.5}
	assert.Nil(t, d.evaluateImbalance("mint1", metrics1h, now))
}

func TestEvaluateUnusualPattern_RequiresRepeatedImbalanceInWindow(t *testing.T) {
	d := newDetector()
	base := time.Now()

	imbalanced := domain.VolumeMetrics{TxCount: 15, BuyRatio: 0.85}

	for i := 0; i < 2; i++ {
		alerts := d.Evaluate("mint1", imbalanced, domain.VolumeMetrics{TotalUSD: 0}, base.Add(time.Duration(i)*time.Minute))
		for _, a := range alerts {
			assert.NotEqual(t, domain.VolumeAlertUnusual, a.Kind)
		}
	}

	alerts := d.Evaluate("mint1", imbalanced, domain.VolumeMetrics{TotalUSD: 0}, base.Add(2*time.Minute))
	found := false
	for _, a := range alerts {
		if a.Kind == domain.VolumeAlertUnusual {
			found = true
			assert.Equal(t, domain.SeverityCritical, a.Severity)
		}
	}
	assert.True(t, found)
}

func TestEvaluateUnusualPattern_OldImbalancesFallOutOfWindow(t *testing.T) {
	d := newDetector()
	base := time.Now()
	imbalanced := domain.VolumeMetrics{TxCount: 15, BuyRatio: 0.85}

	d.Evaluate("mint1", imbalanced, domain.VolumeMetrics{TotalUSD: 0}, base)
	d.Evaluate("mint1", imbalanced, domain.VolumeMetrics{TotalUSD: 0}, base.Add(40*time.Minute))
	alerts := d.Evaluate("mint1", imbalanced, domain.VolumeMetrics{TotalUSD: 0}, base.Add(41*time.Minute))

	for _, a := range alerts {
		assert.NotEqual(t, domain.VolumeAlertUnusual, a.Kind)
	}
}
