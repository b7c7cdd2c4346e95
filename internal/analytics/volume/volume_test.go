package volume

import (
	"testing"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEligible_FiltersByCategoryAndValue(t *testing.T) {
	assert.True(t, Eligible(Entry{USDValue: 10, Category: domain.CategoryMedium}))
	assert.False(t, Eligible(Entry{USDValue: 9, Category: domain.CategoryMedium}))
	assert.False(t, Eligible(Entry{USDValue: 100, Category: domain.CategoryLow}))
}

func TestTracker_MetricsWindowsAndRatio(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.Record("mint1", Entry{Type: domain.TransactionBuy, USDValue: 100, Timestamp: now.Add(-30 * time.Minute), Category: domain.CategoryHigh}, now)
	tr.Record("mint1", Entry{Type: domain.TransactionSell, USDValue: 50, Timestamp: now.Add(-2 * time.Hour), Category: domain.CategoryHigh}, now)

	m1h := tr.Metrics("mint1", domain.Window1h, now)
	assert.Equal(t, 1, m1h.TxCount)
	assert.InDelta(t, 1.0, m1h.BuyRatio, 1e-9)

	m4h := tr.Metrics("mint1", domain.Window4h, now)
	assert.Equal(t, 2, m4h.TxCount)
	assert.InDelta(t, 100.0/150.0, m4h.BuyRatio, 1e-9)
}

func TestTracker_PrunesOlderThan24h(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.Record("mint1", Entry{Type: domain.TransactionBuy, USDValue: 100, Timestamp: now.Add(-25 * time.Hour), Category: domain.CategoryHigh}, now)
	m24h := tr.Metrics("mint1", domain.Window24h, now)
	assert.Equal(t, 0, m24h.TxCount)
}
