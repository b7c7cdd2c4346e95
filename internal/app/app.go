// Package app wires the ingestion engine's components together and
// defines the one error type allowed to reach main as fatal.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/analytics/holders"
	"github.com/aristath/pumpstream/internal/analytics/liquidity"
	"github.com/aristath/pumpstream/internal/analytics/volume"
	"github.com/aristath/pumpstream/internal/buysignal"
	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/database"
	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/events"
	"github.com/aristath/pumpstream/internal/feed"
	"github.com/aristath/pumpstream/internal/health"
	"github.com/aristath/pumpstream/internal/repository"
	"github.com/aristath/pumpstream/internal/scheduler"
	"github.com/aristath/pumpstream/internal/solana"
	"github.com/aristath/pumpstream/internal/solprice"
	"github.com/aristath/pumpstream/internal/stream"
)

const holderQueueWorkers = 2

// sweepableCategories are the non-terminal lifecycle bands the periodic
// holder/growth/quality/milestone sweeps run over. GRADUATED tokens are
// excluded: the curve no longer trades and the buy-signal path never
// considers them (§4.3).
var sweepableCategories = []domain.Category{domain.CategoryLow, domain.CategoryMedium, domain.CategoryHigh, domain.CategoryAim}

// App is the assembled ingestion engine, holding every long-running
// component the process entry point needs to start and stop in order.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	db         *database.DB
	eventBus   *events.Bus
	eventMgr   *events.Manager
	solPrice   *solprice.Service
	feedClient *feed.Client
	repo       *repository.Repository

	holderQueue   *holders.Queue
	holderClient  *holders.RateLimitedClient
	holderSvc     *holders.Service
	volumeTracker *volume.Tracker
	volumeSvc     *volume.Service
	growth        *liquidity.GrowthTracker
	quality       *liquidity.QualityScorer
	milestones    *liquidity.MilestoneTracker
	evaluator     *buysignal.Evaluator

	streamMgr *stream.Manager
	scheduler *scheduler.Scheduler

	cancelBackground context.CancelFunc
}

// New assembles every component but performs no I/O; construction never
// fails. Fallible initialization (DB connect, SOL/USD bootstrap) happens
// in Start.
func New(cfg *config.Config, log zerolog.Logger) *App {
	eventBus := events.NewBus(log)
	eventMgr := events.NewManager(eventBus, log)

	solPriceSvc := solprice.New(solprice.NewHTTPFetcher("https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"), cfg.SolPricePollInterval, log)
	feedClient := feed.New(cfg.GRPCEndpoint, cfg.GRPCToken, log)

	a := &App{
		cfg:        cfg,
		log:        log.With().Str("component", "app.App").Logger(),
		eventBus:   eventBus,
		eventMgr:   eventMgr,
		solPrice:   solPriceSvc,
		feedClient: feedClient,
	}

	a.holderClient = holders.NewRateLimitedClient(solana.NewRPCClient(cfg.SolanaRPCURL), cfg.HolderRequestDelay)
	a.holderQueue = holders.NewQueue()

	volumeDetector := volume.NewAlertDetector(cfg.VolumeSpikeMultiple, cfg.VolumeImbalanceMinTx, cfg.UnusualPatternWindow, cfg.UnusualPatternMinCount)
	a.volumeTracker = volume.NewTracker()
	a.volumeSvc = volume.NewService(a.volumeTracker, volumeDetector, eventMgr, a, log)

	a.evaluator = buysignal.New(*cfg, log)
	a.milestones = liquidity.NewMilestoneTracker(cfg.MilestoneCooldown, log)
	a.quality = liquidity.NewQualityScorer(*cfg)

	return a
}

// Start performs all fallible initialization — database pool, SOL/USD
// bootstrap, and the upstream gRPC subscription — then runs every
// long-running component until ctx is cancelled. Any failure before the
// subscription is established is returned as a *StartupError; after
// that point, Start blocks until ctx is done and returns nil.
func (a *App) Start(ctx context.Context) error {
	db, err := database.New(ctx, database.DefaultConfig(a.cfg.DatabaseURL), a.log)
	if err != nil {
		return newStartupError("database connect", err)
	}
	a.db = db
	a.repo = repository.New(db)
	a.growth = liquidity.NewGrowthTracker(a.repo, a.log)
	a.holderSvc = holders.NewService(a.holderQueue, a.holderClient, a.repo, a.eventMgr, a, a.log)
	a.streamMgr = stream.New(a.cfg, db, a.eventMgr, a.solPrice, a.feedClient, a.volumeSvc, a.log, a.onCategoryEnterAim)

	if err := a.solPrice.Bootstrap(ctx); err != nil {
		db.Close()
		return newStartupError("sol price bootstrap", err)
	}

	bgCtx, cancel := context.WithCancel(ctx)
	a.cancelBackground = cancel

	a.scheduler = scheduler.New(a.log)
	a.registerJobs()
	a.scheduler.Start()

	go a.solPrice.Run(bgCtx)
	go a.holderSvc.Run(bgCtx, holderQueueWorkers)

	if err := a.streamMgr.Start(bgCtx); err != nil {
		return newStartupError("stream subscription", err)
	}

	return nil
}

// Stop cancels every background goroutine and waits for the scheduler's
// in-flight job to finish, then closes the database pool. The stream
// manager's final flush runs as part of its own Start-context
// cancellation, so callers must cancel the context passed to Start
// before calling Stop.
func (a *App) Stop() {
	if a.cancelBackground != nil {
		a.cancelBackground()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.holderQueue != nil {
		a.holderQueue.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// onCategoryEnterAim is invoked by the stream manager whenever a token
// crosses into the AIM band: it enqueues a holder refresh and
// immediately runs a buy-signal evaluation from whatever analytics are
// already cached.
func (a *App) onCategoryEnterAim(tokenAddress string) {
	a.holderQueue.Enqueue(tokenAddress, domain.CategoryAim)
	a.evaluateAndEmit(context.Background(), tokenAddress, false)
}

// ApplyMetadataUpdate is the narrow entry point an external
// metadata-enrichment adapter calls once it resolves a token's
// symbol/name/description/image out of band. The core never fetches
// this data itself (out of scope); it only accepts and persists
// whatever arrives, then emits metadataUpdated for subscribers.
func (a *App) ApplyMetadataUpdate(ctx context.Context, tokenAddress, symbol, name, description, imageURL string) error {
	if err := a.repo.UpdateTokenMetadata(ctx, tokenAddress, symbol, name, description, imageURL); err != nil {
		return fmt.Errorf("apply metadata update: %w", err)
	}
	a.eventMgr.EmitTyped("metadata", &events.MetadataUpdatedData{TokenAddress: tokenAddress})
	return nil
}

// ScheduleReEvaluation implements both holders.ReEvaluator and
// volume.ReEvaluator: it re-runs the buy-signal evaluator for
// tokenAddress after the given delay. Every scheduled re-evaluation,
// whether requested after a holder refresh or after a critical volume
// alert, is emitted as volumeTriggeredBuySignal; only the immediate
// evaluation on entering AIM is emitted as buySignal.
func (a *App) ScheduleReEvaluation(tokenAddress string, after time.Duration) {
	time.AfterFunc(after, func() {
		a.evaluateAndEmit(context.Background(), tokenAddress, true)
	})
}

func (a *App) evaluateAndEmit(ctx context.Context, tokenAddress string, volumeTriggered bool) {
	token, err := a.repo.LoadToken(ctx, tokenAddress)
	if err != nil || token == nil {
		if err != nil {
			a.log.Warn().Err(err).Str("token", tokenAddress).Msg("failed to load token for buy-signal evaluation")
		}
		return
	}

	now := time.Now()
	growthMetrics, err := a.growth.Compute(ctx, tokenAddress, now)
	if err != nil {
		a.log.Warn().Err(err).Str("token", tokenAddress).Msg("growth compute failed for buy-signal evaluation")
	}

	ticks, err := a.repo.RecentTicks(ctx, tokenAddress, now.Add(-24*time.Hour))
	if err != nil {
		a.log.Warn().Err(err).Str("token", tokenAddress).Msg("recent ticks fetch failed for buy-signal evaluation")
	}
	volumeMetrics := a.volumeTracker.Metrics(tokenAddress, domain.Window24h, now)
	qualityScore := a.quality.Score(tokenAddress, liquidity.QualityInputs{
		LiquidityUSD:  token.CurrentLiquidityUSD,
		Volume24hUSD:  float64(volumeMetrics.TotalUSD),
		VolatilityPct: liquidity.VolatilityPct(ticks),
		Top10Percent:  token.Top10Percent,
	}, now)

	signal := a.evaluator.Evaluate(token, &qualityScore, growthMetrics, now)
	if signal == nil {
		return
	}

	if signal.Passed {
		if err := a.repo.IncrementBuyAttempts(ctx, tokenAddress); err != nil {
			a.log.Error().Err(err).Str("token", tokenAddress).Msg("failed to persist buy attempt increment")
		}
	}
	if err := a.repo.WriteBuySignal(ctx, *signal); err != nil {
		a.log.Error().Err(err).Str("token", tokenAddress).Msg("failed to persist buy signal")
	}

	if volumeTriggered {
		a.eventMgr.EmitTyped("buysignal", &events.VolumeTriggeredBuySignalData{Signal: *signal})
	} else {
		a.eventMgr.EmitTyped("buysignal", &events.BuySignalData{Signal: *signal})
	}
}

// registerJobs wires the periodic background sweeps onto the
// scheduler, each grounded on the cadence named in the component
// design: stream stats, health, holder refresh, liquidity growth and
// quality, and milestone evaluation.
func (a *App) registerJobs() {
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{"@every 30s", scheduler.NewFuncJob("stream_stats", a.publishStreamStats)},
		{"@every 60s", health.NewJob(health.Config{
			Log:             a.log,
			DB:              a.db,
			StreamStatus:    a.streamStatus,
			HolderQueue:     a.holderQueue,
			MaxFlushSilence: 60 * time.Second,
		})},
		{"@every 3m", scheduler.NewFuncJob("holder_refresh_sweep", a.holderRefreshSweep)},
		{"@every 2m", scheduler.NewFuncJob("liquidity_growth_sweep", a.liquidityGrowthSweep)},
		{"@every 5m", scheduler.NewFuncJob("liquidity_quality_sweep", a.liquidityQualitySweep)},
		{"@every 10m", scheduler.NewFuncJob("volume_leaderboard", a.volumeLeaderboardSweep)},
		{"@every 15m", scheduler.NewFuncJob("metadata_backfill", a.metadataBackfillSweep)},
	}

	for _, j := range jobs {
		if err := a.scheduler.AddJob(j.schedule, j.job); err != nil {
			a.log.Error().Err(err).Str("job", j.job.Name()).Msg("failed to register job")
		}
	}
}

func (a *App) streamStatus() health.StreamStatus {
	snap := a.streamMgr.Snapshot()
	return health.StreamStatus{Connected: true, LastFlushAt: snap.LastFlushAt}
}

func (a *App) publishStreamStats() error {
	snap := a.streamMgr.Snapshot()
	a.eventMgr.EmitTyped("stream", &events.StatsData{
		TokensTracked:       int(snap.TokensTracked),
		PriceTicksFlushed:   int(snap.PriceTicksFlushed),
		TransactionsFlushed: int(snap.TransactionsFlushed),
		FlushErrors:         int(snap.FlushErrors),
	})
	return nil
}

func (a *App) holderRefreshSweep() error {
	ctx := context.Background()
	addresses, err := a.repo.LoadTokenAddressesByCategories(ctx, sweepableCategories...)
	if err != nil {
		return fmt.Errorf("holder refresh sweep: %w", err)
	}
	for _, addr := range addresses {
		token, err := a.repo.LoadToken(ctx, addr)
		if err != nil || token == nil {
			continue
		}
		lastUpdated := time.Time{}
		if token.HolderLastUpdated != nil {
			lastUpdated = *token.HolderLastUpdated
		}
		if holders.IsStale(token.Category, lastUpdated, time.Now()) {
			a.holderQueue.Enqueue(addr, token.Category)
		}
	}
	return nil
}

func (a *App) liquidityGrowthSweep() error {
	ctx := context.Background()
	addresses, err := a.repo.LoadTokenAddressesByCategories(ctx, sweepableCategories...)
	if err != nil {
		return fmt.Errorf("liquidity growth sweep: %w", err)
	}
	now := time.Now()
	for _, addr := range addresses {
		metrics, err := a.growth.Compute(ctx, addr, now)
		if err != nil {
			a.log.Warn().Err(err).Str("token", addr).Msg("growth sweep compute failed")
			continue
		}
		if metrics.Momentum == domain.MomentumHigh {
			a.eventMgr.EmitTyped("liquidity", &events.LiquidityMomentumData{TokenAddress: addr, Momentum: metrics.Momentum})
		}
		if alert := a.milestones.Evaluate(addr, domain.LadderVelocity, liquidity.VelocityLadder, metrics.Rate1h, now); alert != nil {
			a.eventMgr.EmitTyped("liquidity", events.NewLiquidityMilestoneData(*alert))
		}
	}
	return nil
}

func (a *App) liquidityQualitySweep() error {
	ctx := context.Background()
	addresses, err := a.repo.LoadTokenAddressesByCategories(ctx, sweepableCategories...)
	if err != nil {
		return fmt.Errorf("liquidity quality sweep: %w", err)
	}
	now := time.Now()
	for _, addr := range addresses {
		token, err := a.repo.LoadToken(ctx, addr)
		if err != nil || token == nil {
			continue
		}
		ticks, err := a.repo.RecentTicks(ctx, addr, now.Add(-24*time.Hour))
		if err != nil {
			a.log.Warn().Err(err).Str("token", addr).Msg("quality sweep ticks fetch failed")
			continue
		}
		volumeMetrics := a.volumeTracker.Metrics(addr, domain.Window24h, now)
		score := a.quality.Score(addr, liquidity.QualityInputs{
			LiquidityUSD:  token.CurrentLiquidityUSD,
			Volume24hUSD:  float64(volumeMetrics.TotalUSD),
			VolatilityPct: liquidity.VolatilityPct(ticks),
			Top10Percent:  token.Top10Percent,
		}, now)
		if score.Suitability == domain.SuitabilityExcellent || score.Suitability == domain.SuitabilityGood {
			a.eventMgr.EmitTyped("liquidity", &events.HighQualityLiquidityData{TokenAddress: addr, Score: score.Score})
		}

		a.evaluateMilestones(addr, token, now)
	}
	return nil
}

func (a *App) evaluateMilestones(addr string, token *domain.Token, now time.Time) {
	if alert := a.milestones.Evaluate(addr, domain.LadderLiquidityUSD, liquidity.USDLiquidityLadder, token.CurrentLiquidityUSD, now); alert != nil {
		a.eventMgr.EmitTyped("liquidity", events.NewLiquidityMilestoneData(*alert))
	}
	if alert := a.milestones.Evaluate(addr, domain.LadderLiquiditySOL, liquidity.SOLLiquidityLadder, token.CurrentLiquiditySOL, now); alert != nil {
		a.eventMgr.EmitTyped("liquidity", events.NewLiquidityMilestoneData(*alert))
	}
	if alert := a.milestones.Evaluate(addr, domain.LadderGraduationProgress, liquidity.GraduationProgressLadder, token.CurveProgress, now); alert != nil {
		a.eventMgr.EmitTyped("liquidity", events.NewLiquidityMilestoneData(*alert))
		if token.CurveProgress >= 90 {
			a.eventMgr.EmitTyped("liquidity", &events.NearGraduationData{TokenAddress: addr, CurveProgress: token.CurveProgress})
		}
	}
}

// metadataBackfillSweep reports how many tokens are still waiting on
// their first symbol/name/description update from an external
// metadata-enrichment adapter. Fetching that data is out of scope for
// the core (§1); this sweep only surfaces the backlog so an operator
// can judge whether the external adapter is keeping up.
func (a *App) metadataBackfillSweep() error {
	ctx := context.Background()
	pending, err := a.repo.CountPendingMetadata(ctx)
	if err != nil {
		return fmt.Errorf("metadata backfill sweep: %w", err)
	}
	a.log.Debug().Int("pending", pending).Msg("metadata backfill backlog")
	return nil
}

func (a *App) volumeLeaderboardSweep() error {
	ctx := context.Background()
	addresses, err := a.repo.LoadTokenAddressesByCategories(ctx, domain.CategoryAim)
	if err != nil {
		return fmt.Errorf("volume leaderboard sweep: %w", err)
	}
	now := time.Now()
	for _, addr := range addresses {
		metrics := a.volumeTracker.Metrics(addr, domain.Window1h, now)
		a.log.Debug().Str("token", addr).Int64("volume_1h_usd", metrics.TotalUSD).Msg("volume leaderboard entry")
	}
	return nil
}
