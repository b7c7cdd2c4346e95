package stream

import (
	"testing"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDedupeTicks_KeepsHighestSlot(t *testing.T) {
	ts := time.Now().Truncate(time.Second)

	ticks := []domain.PriceTick{
		{TokenAddress: "mint1", Time: ts, Slot: 500, PriceUSD: 1},
		{TokenAddress: "mint1", Time: ts, Slot: 501, PriceUSD: 2},
		{TokenAddress: "mint2", Time: ts, Slot: 10, PriceUSD: 3},
	}

	out := dedupeTicks(ticks)

	byAddr := make(map[string]domain.PriceTick)
	for _, t := range out {
		byAddr[t.TokenAddress] = t
	}

	assert.Len(t, out, 2)
	assert.Equal(t, uint64(501), byAddr["mint1"].Slot)
	assert.Equal(t, 2.0, byAddr["mint1"].PriceUSD)
	assert.Equal(t, uint64(10), byAddr["mint2"].Slot)
}

func TestFilterTransactions_DropsUnknownTokens(t *testing.T) {
	txs := []domain.Transaction{
		{TokenAddress: "known"},
		{TokenAddress: "unknown"},
	}
	known := map[string]bool{"known": true, "unknown": false}

	out := filterTransactions(txs, known)

	assert.Len(t, out, 1)
	assert.Equal(t, "known", out[0].TokenAddress)
}
