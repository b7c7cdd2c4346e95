// Package stream is the single point of ingest: it owns the three flush
// buffers, runs the periodic+size-triggered transactional flush, and
// derives category/threshold bookkeeping from each inbound price tick
// before fanning domain events out to analytics subscribers.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/analytics/volume"
	"github.com/aristath/pumpstream/internal/classifier"
	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/database"
	"github.com/aristath/pumpstream/internal/decoder"
	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/events"
	"github.com/aristath/pumpstream/internal/feed"
	"github.com/aristath/pumpstream/internal/solana"
	"github.com/aristath/pumpstream/internal/solprice"
)

// Stats are the running counters surfaced by the periodic stats event
// and the health check.
type Stats struct {
	TokensTracked       int64
	PriceTicksFlushed   int64
	TransactionsFlushed int64
	FlushErrors         int64
	LastFlushAt         time.Time
}

// Manager is the stream manager described in the component design: it
// owns ingest, buffering, and transactional flush.
type Manager struct {
	cfg *config.Config
	log zerolog.Logger

	db         *database.DB
	classifier *classifier.Classifier
	eventMgr   *events.Manager
	solPrice   *solprice.Service
	feedClient *feed.Client
	volumeSvc  *volume.Service

	buffers *buffers
	states  *tokenStates

	flushMu sync.Mutex // only one flush may be in flight at a time

	lastFlushMu sync.RWMutex
	lastFlushAt time.Time

	stats Stats

	onCategoryEnterAim func(tokenAddress string)
}

// New constructs a Manager. onCategoryEnterAim, if non-nil, is invoked
// whenever a token's category transition crosses into AIM, letting the
// caller enqueue holder and volume analysis as required by §4.3.
func New(
	cfg *config.Config,
	db *database.DB,
	eventMgr *events.Manager,
	solPriceSvc *solprice.Service,
	feedClient *feed.Client,
	volumeSvc *volume.Service,
	log zerolog.Logger,
	onCategoryEnterAim func(tokenAddress string),
) *Manager {
	thresholds := config.DefaultCategoryThresholds()
	if cfg != nil {
		thresholds = cfg.Thresholds
	}
	return &Manager{
		cfg:                cfg,
		log:                log.With().Str("component", "stream.Manager").Logger(),
		db:                 db,
		classifier:         classifier.New(thresholds),
		eventMgr:           eventMgr,
		solPrice:           solPriceSvc,
		feedClient:         feedClient,
		volumeSvc:          volumeSvc,
		buffers:            newBuffers(),
		states:             newTokenStates(),
		onCategoryEnterAim: onCategoryEnterAim,
	}
}

// Start establishes the gRPC subscription and runs the ingest and flush
// loops until ctx is cancelled. It returns once the account,
// transaction and flush loops have all returned (i.e. after the flush
// loop's final flush on cancellation completes or times out).
func (m *Manager) Start(ctx context.Context) error {
	sub := m.feedClient.Subscribe(ctx)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		m.consumeAccounts(ctx, sub.Accounts)
	}()
	go func() {
		defer wg.Done()
		m.consumeTransactions(ctx, sub.Transactions)
	}()
	go func() {
		defer wg.Done()
		m.flushLoop(ctx)
	}()

	wg.Wait()
	return nil
}

func (m *Manager) consumeAccounts(ctx context.Context, accounts <-chan feed.AccountUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-accounts:
			if !ok {
				return
			}
			m.handleAccountUpdate(update)
		}
	}
}

func (m *Manager) consumeTransactions(ctx context.Context, txs <-chan feed.TransactionUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-txs:
			if !ok {
				return
			}
			m.handleTransactionUpdate(update)
		}
	}
}

// handleAccountUpdate decodes a bonding-curve account update, derives
// price/liquidity/market-cap, updates category bookkeeping, and appends
// a price tick (and, for a previously-unseen token, a new-token record)
// to the buffers.
func (m *Manager) handleAccountUpdate(update feed.AccountUpdate) {
	if update.Owner != solana.PumpFunProgramID {
		return
	}

	state, err := decoder.Decode(update.Data)
	if err != nil {
		m.log.Warn().Err(err).Str("mint", update.Pubkey).Msg("decode error, skipping update")
		return
	}

	solUSD, _ := m.solPrice.Current()
	if solUSD <= 0 {
		m.log.Warn().Msg("SOL/USD price unavailable, skipping update")
		return
	}

	pricing, err := decoder.Price(state, solUSD)
	if err != nil {
		if state.Complete {
			m.handleGraduation(state.Mint)
		}
		m.log.Debug().Err(err).Str("mint", state.Mint).Msg("pricing rejected")
		return
	}

	now := time.Now()
	snap, existed := m.states.get(state.Mint)
	previousCategory := domain.Category("")
	if existed {
		previousCategory = snap.Category
	}

	nextCategory := m.classifier.BandFor(pricing.MarketCapUSD)
	if nextCategory == "" {
		// Below entry threshold. A token never previously tracked is never
		// persisted at all; one already tracked keeps its last-known
		// category but gets below_threshold_since stamped, per the Token
		// invariant in the data model.
		if existed && snap.BelowThresholdSince == nil {
			belowSnap := *snap
			belowSnap.BelowThresholdSince = &now
			m.states.set(state.Mint, &belowSnap)
			m.setBelowThresholdSince(state.Mint, &now)
		}
		return
	}

	newSnap := &tokenSnapshot{Category: nextCategory, MarketCapUSD: pricing.MarketCapUSD, PriceSOL: pricing.PriceSOL}
	if existed {
		newSnap.FirstSeenAboveThreshold = snap.FirstSeenAboveThreshold
		newSnap.BuyAttempts = snap.BuyAttempts
		if snap.BelowThresholdSince != nil {
			m.setBelowThresholdSince(state.Mint, nil)
		}
	} else {
		newSnap.FirstSeenAboveThreshold = now
		atomic.AddInt64(&m.stats.TokensTracked, 1)
		size := m.buffers.addNewToken(domain.Token{
			Address:                 state.Mint,
			Symbol:                  "LOADING…",
			Name:                    "Unknown Token",
			Category:                nextCategory,
			CreatedAt:               now,
			FirstSeenAboveThreshold: now,
		})
		m.flushIfFull(size)
		m.eventMgr.EmitTyped("stream", &events.NewTokenData{
			TokenAddress: state.Mint,
			Category:     nextCategory,
			MarketCapUSD: pricing.MarketCapUSD,
		})
	}
	m.states.set(state.Mint, newSnap)

	tickSize := m.buffers.addPriceTick(domain.PriceTick{
		TokenAddress:         state.Mint,
		Time:                 now,
		PriceUSD:             pricing.PriceUSD,
		PriceSOL:             pricing.PriceSOL,
		VirtualSOLReserves:   state.VirtualSOLReserves,
		VirtualTokenReserves: state.VirtualTokenReserves,
		RealSOLReserves:      state.RealSOLReserves,
		RealTokenReserves:    state.RealTokenReserves,
		MarketCapUSD:         pricing.MarketCapUSD,
		LiquidityUSD:         pricing.LiquidityUSD,
		Source:               "grpc",
	})
	m.flushIfFull(tickSize)

	if existed && nextCategory != previousCategory {
		_, transition, crossed := m.classifier.Reclassify(state.Mint, previousCategory, pricing.MarketCapUSD, now)
		if crossed {
			m.eventMgr.EmitTyped("classifier", &events.CategoryChangedData{
				TokenAddress: state.Mint,
				FromCategory: transition.FromCategory,
				ToCategory:   transition.ToCategory,
				MarketCapUSD: transition.MarketCapUSD,
			})
			if classifier.EntersActionableBand(transition) && m.onCategoryEnterAim != nil {
				m.onCategoryEnterAim(state.Mint)
			}
		}
	}

	if state.RealSOLReserves >= config.GraduationTargetLamports {
		m.handleGraduation(state.Mint)
	}
}

// flushIfFull triggers an immediate flush when a buffer's size has
// reached the configured batch size, per the "exceeds a configured
// size" half of the batching algorithm (the periodic timer in
// flushLoop covers the other half).
func (m *Manager) flushIfFull(size int) {
	if m.cfg != nil && size >= m.cfg.FlushBatchSize {
		m.Flush(context.Background())
	}
}

// setBelowThresholdSince persists the below_threshold_since column for an
// already-tracked token directly (not as part of the buffered flush,
// since it concerns a single already-persisted row and fires on a
// boundary crossing rather than on every tick). A nil since clears the
// column, which happens when the token's market cap recovers back above
// the entry threshold.
func (m *Manager) setBelowThresholdSince(tokenAddress string, since *time.Time) {
	if m.db == nil {
		return
	}
	_, err := m.db.Pool.Exec(context.Background(),
		`UPDATE tokens SET below_threshold_since = $2, updated_at = now() WHERE address = $1`,
		tokenAddress, since)
	if err != nil {
		m.log.Warn().Err(err).Str("token", tokenAddress).Msg("failed to persist below_threshold_since")
	}
}

func (m *Manager) handleGraduation(mint string) {
	snap, ok := m.states.get(mint)
	if ok && snap.Category == domain.CategoryGraduated {
		return
	}
	if ok {
		snap.Category = domain.CategoryGraduated
		m.states.set(mint, snap)
	}
	m.eventMgr.EmitTyped("stream", &events.TokenGraduatedData{TokenAddress: mint})
}

// handleTransactionUpdate classifies a transaction as create/buy/sell,
// appends it to the buffer, and — for a recognized trade on a token
// already tracked above the entry threshold — records it with the
// volume analytics service so spike/imbalance alerts stay current.
func (m *Manager) handleTransactionUpdate(update feed.TransactionUpdate) {
	if update.Failed {
		return
	}

	mint, isCreate := m.detectCreate(update)
	if mint == "" {
		return
	}

	now := time.Now()
	txType := domain.TransactionCreate
	var tokenAmount, solAmountLamports uint64
	var isTrade bool

	if !isCreate {
		for _, instr := range update.Instructions {
			if instr.ProgramID != solana.PumpFunProgramID {
				continue
			}
			if t, tok, sol, ok := solana.DecodeTradeInstruction(instr.Data); ok {
				txType, tokenAmount, solAmountLamports = t, tok, sol
				isTrade = true
				break
			}
		}
		if !isTrade {
			// Unrecognized instruction shape on a non-create transaction:
			// still buffered as a buy so flush counters aren't silently
			// dropped, but not eligible for volume accounting below.
			txType = domain.TransactionBuy
		}
	}

	solAmount := float64(solAmountLamports) / 1e9
	solUSD, _ := m.solPrice.Current()

	txSize := m.buffers.addTransaction(domain.Transaction{
		Signature:    update.Signature,
		TokenAddress: mint,
		Time:         now,
		Type:         txType,
		TokenAmount:  float64(tokenAmount),
		SOLAmount:    solAmount,
		UserAddress:  update.FeePayer,
		Fee:          update.Fee,
		Slot:         update.Slot,
	})
	m.flushIfFull(txSize)

	if !isTrade || m.volumeSvc == nil {
		return
	}

	snap, _ := m.states.get(mint)
	var category domain.Category
	if snap != nil {
		category = snap.Category
	}

	m.volumeSvc.Record(mint, volume.Entry{
		Type:      txType,
		USDValue:  solAmount * solUSD,
		Timestamp: now,
		Category:  category,
	}, category, now)
}

// detectCreate applies the token-creation detection rule: either the
// pump.fun create-instruction log line is present alongside the program
// in accountKeys, or an instruction addressed to the program carries a
// known create discriminator byte. It returns the mint address the
// transaction concerns when determinable.
func (m *Manager) detectCreate(update feed.TransactionUpdate) (mint string, isCreate bool) {
	hasProgram := false
	for _, k := range update.AccountKeys {
		if k == solana.PumpFunProgramID {
			hasProgram = true
			break
		}
	}
	if !hasProgram {
		return "", false
	}

	if solana.ContainsCreateLog(update.LogMessages) {
		isCreate = true
	}
	for _, instr := range update.Instructions {
		if instr.ProgramID == solana.PumpFunProgramID && solana.IsCreateInstruction(instr.Data) {
			isCreate = true
		}
	}

	// The mint is conventionally the first non-program account key for a
	// pump.fun instruction; callers beyond this boundary only need a
	// best-effort association since transactions with unknown tokens are
	// filtered out at flush time.
	for _, k := range update.AccountKeys {
		if k != solana.PumpFunProgramID && k != "" {
			mint = k
			break
		}
	}
	return mint, isCreate
}

func (m *Manager) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.finalFlush()
			return
		case <-ticker.C:
			m.Flush(context.Background())
		}
	}
}

// finalFlush attempts one last flush with a bounded grace window on
// shutdown; on timeout the remaining buffer is discarded rather than
// blocking process exit.
func (m *Manager) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.Flush(ctx)
}

// Snapshot returns a snapshot of the running counters, used by the
// periodic stats event and the health check.
func (m *Manager) Snapshot() Stats {
	m.lastFlushMu.RLock()
	lastFlush := m.lastFlushAt
	m.lastFlushMu.RUnlock()

	return Stats{
		TokensTracked:       atomic.LoadInt64(&m.stats.TokensTracked),
		PriceTicksFlushed:   atomic.LoadInt64(&m.stats.PriceTicksFlushed),
		TransactionsFlushed: atomic.LoadInt64(&m.stats.TransactionsFlushed),
		FlushErrors:         atomic.LoadInt64(&m.stats.FlushErrors),
		LastFlushAt:         lastFlush,
	}
}
