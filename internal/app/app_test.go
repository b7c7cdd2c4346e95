package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/pumpstream/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DatabaseURL:            "postgres://localhost/test",
		GRPCEndpoint:           "localhost:10000",
		SolanaRPCURL:           "https://api.mainnet-beta.solana.com",
		FlushBatchSize:         1000,
		Thresholds:             config.DefaultCategoryThresholds(),
		SolPricePollInterval:   30_000_000_000,
		HolderRequestDelay:     250_000_000,
		MaxBuyAttempts:         3,
		MinLiquidityUSD:        7_500,
		MaxTop10Percent:        30,
		MinSecurityScore:       60,
		BlacklistSecurityScore: 90,
	}
}

func TestNew_AssemblesEveryComponentWithoutIO(t *testing.T) {
	a := New(testConfig(), zerolog.Nop())

	require.NotNil(t, a)
	assert.NotNil(t, a.eventMgr)
	assert.NotNil(t, a.solPrice)
	assert.NotNil(t, a.feedClient)
	assert.NotNil(t, a.holderQueue)
	assert.NotNil(t, a.holderClient)
	assert.NotNil(t, a.volumeTracker)
	assert.NotNil(t, a.volumeSvc)
	assert.NotNil(t, a.evaluator)
	assert.NotNil(t, a.milestones)
	assert.NotNil(t, a.quality)

	// Database-dependent components aren't wired until Start.
	assert.Nil(t, a.db)
	assert.Nil(t, a.repo)
	assert.Nil(t, a.streamMgr)
}

func TestStreamStatus_StreamManagerNilBeforeStart(t *testing.T) {
	a := New(testConfig(), zerolog.Nop())
	// streamMgr is only constructed in Start; calling streamStatus before
	// that would panic, which is the documented ordering constraint on
	// registerJobs (only ever invoked from within Start, after streamMgr
	// exists).
	assert.Nil(t, a.streamMgr)
}
