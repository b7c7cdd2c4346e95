package stream

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/pumpstream/internal/analytics/volume"
	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/events"
	"github.com/aristath/pumpstream/internal/feed"
	"github.com/aristath/pumpstream/internal/solana"
	"github.com/aristath/pumpstream/internal/solprice"
)

type stubFetcher struct{ rate float64 }

func (s stubFetcher) FetchSOLUSD(ctx context.Context) (float64, error) { return s.rate, nil }

func tradeInstruction(discriminator byte, tokenAmount, solAmountLamports uint64) feed.InstructionData {
	buf := make([]byte, 17)
	buf[0] = discriminator
	binary.LittleEndian.PutUint64(buf[1:9], tokenAmount)
	binary.LittleEndian.PutUint64(buf[9:17], solAmountLamports)
	return feed.InstructionData{ProgramID: solana.PumpFunProgramID, Data: buf}
}

func newTestManager(t *testing.T) (*Manager, *volume.Tracker) {
	t.Helper()
	log := zerolog.Nop()

	priceSvc := solprice.New(stubFetcher{rate: 100}, time.Hour, log)
	require.NoError(t, priceSvc.Bootstrap(context.Background()))

	bus := events.NewBus(log)
	eventMgr := events.NewManager(bus, log)

	tracker := volume.NewTracker()
	detector := volume.NewAlertDetector(5, 10, 30*time.Minute, 3)
	volumeSvc := volume.NewService(tracker, detector, eventMgr, nil, log)

	m := New(nil, nil, eventMgr, priceSvc, nil, volumeSvc, log, nil)
	return m, tracker
}

func TestHandleTransactionUpdate_RecordsEligibleBuyIntoVolumeService(t *testing.T) {
	m, tracker := newTestManager(t)
	m.states.set("mintAddr", &tokenSnapshot{Category: domain.CategoryAim})

	update := feed.TransactionUpdate{
		Signature:    "sig1",
		AccountKeys:  []string{solana.PumpFunProgramID, "mintAddr"},
		Instructions: []feed.InstructionData{tradeInstruction(solana.BuyDiscriminator, 1_000_000, 2_000_000_000)},
	}

	m.handleTransactionUpdate(update)

	metrics := tracker.Metrics("mintAddr", domain.Window1h, time.Now())
	assert.Equal(t, 1, metrics.TxCount)
	assert.Greater(t, metrics.BuyUSD, 0.0)
}

func TestHandleTransactionUpdate_IgnoresCreateForVolumeAccounting(t *testing.T) {
	m, tracker := newTestManager(t)
	m.states.set("mintAddr", &tokenSnapshot{Category: domain.CategoryAim})

	update := feed.TransactionUpdate{
		Signature:   "sig2",
		AccountKeys: []string{solana.PumpFunProgramID, "mintAddr"},
		LogMessages: []string{"Program log: Instruction: Create"},
	}

	m.handleTransactionUpdate(update)

	metrics := tracker.Metrics("mintAddr", domain.Window1h, time.Now())
	assert.Equal(t, 0, metrics.TxCount)
}

func TestHandleTransactionUpdate_BelowMinUSDIsNotRecorded(t *testing.T) {
	m, tracker := newTestManager(t)
	m.states.set("mintAddr", &tokenSnapshot{Category: domain.CategoryAim})

	update := feed.TransactionUpdate{
		Signature:    "sig3",
		AccountKeys:  []string{solana.PumpFunProgramID, "mintAddr"},
		Instructions: []feed.InstructionData{tradeInstruction(solana.SellDiscriminator, 10, 1_000)},
	}

	m.handleTransactionUpdate(update)

	metrics := tracker.Metrics("mintAddr", domain.Window1h, time.Now())
	assert.Equal(t, 0, metrics.TxCount)
}
