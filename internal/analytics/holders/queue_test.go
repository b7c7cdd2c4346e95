package holders

import (
	"testing"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DequeuesHighestPriorityFirst(t *testing.T) {
	q := NewQueue()
	q.Enqueue("low", domain.CategoryLow)
	q.Enqueue("aim", domain.CategoryAim)
	q.Enqueue("high", domain.CategoryHigh)

	job, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "aim", job.TokenAddress)

	job, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "high", job.TokenAddress)

	job, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "low", job.TokenAddress)
}

func TestQueue_DeduplicatesPendingEnqueue(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.Enqueue("mint1", domain.CategoryAim))
	assert.False(t, q.Enqueue("mint1", domain.CategoryAim))
	assert.Equal(t, 1, q.Len())
}

func TestQueue_CloseUnblocksDequeue(t *testing.T) {
	q := NewQueue()
	q.Close()
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestConcentrationMetrics(t *testing.T) {
	accounts := []HolderAccount{
		{Owner: "a", Balance: 50},
		{Owner: "b", Balance: 30},
		{Owner: "c", Balance: 20},
	}

	total, top1, _, _, _, _ := ConcentrationMetrics(accounts)

	assert.Equal(t, 3, total)
	assert.InDelta(t, 50.0, top1, 1e-9)
}
