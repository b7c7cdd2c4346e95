package stream

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/obs"
)

const priceChunkSize = 50

// Flush drains the buffers and persists them in a single transaction, in
// the exact order required for referential integrity: new tokens, then
// placeholder tokens for any address still missing, then deduplicated
// price ticks, then transactions filtered to known tokens. Buffers are
// cleared regardless of outcome to prevent unbounded growth; a failure
// rolls back the whole transaction, increments the error counter, and
// emits a diagnostic event.
func (m *Manager) Flush(ctx context.Context) {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	ticks, txs, newTokens := m.buffers.drain()
	if len(ticks) == 0 && len(txs) == 0 && len(newTokens) == 0 {
		return
	}

	timer := obs.NewTimer("stream.flush", m.log)
	defer timer.StopWithContext(map[string]interface{}{
		"price_ticks":  len(ticks),
		"transactions": len(txs),
		"new_tokens":   len(newTokens),
	})

	err := m.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := insertNewTokens(ctx, tx, newTokens); err != nil {
			return err
		}
		if err := preInsertMissingTokens(ctx, tx, ticks, txs); err != nil {
			return err
		}
		deduped := dedupeTicks(ticks)
		if err := upsertPriceTicks(ctx, tx, deduped); err != nil {
			return err
		}
		known, err := filterKnownTokenAddresses(ctx, tx, txs)
		if err != nil {
			return err
		}
		if err := insertTransactions(ctx, tx, filterTransactions(txs, known)); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		atomic.AddInt64(&m.stats.FlushErrors, 1)
		m.log.Error().Err(err).Msg("flush failed, transaction rolled back")
		m.eventMgr.EmitError("stream.flush", err)
		return
	}

	atomic.AddInt64(&m.stats.PriceTicksFlushed, int64(len(ticks)))
	atomic.AddInt64(&m.stats.TransactionsFlushed, int64(len(txs)))

	m.lastFlushMu.Lock()
	m.lastFlushAt = time.Now()
	m.lastFlushMu.Unlock()
}

// dedupeTicks keeps, for each (address, time) pair, the tick with the
// highest slot.
func dedupeTicks(ticks []domain.PriceTick) []domain.PriceTick {
	type key struct {
		address string
		time    int64
	}
	best := make(map[key]domain.PriceTick, len(ticks))
	for _, t := range ticks {
		k := key{address: t.TokenAddress, time: t.Time.UnixNano()}
		if existing, ok := best[k]; !ok || t.Slot > existing.Slot {
			best[k] = t
		}
	}

	out := make([]domain.PriceTick, 0, len(best))
	for _, t := range best {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func insertNewTokens(ctx context.Context, tx pgx.Tx, tokens []domain.Token) error {
	for _, t := range tokens {
		_, err := tx.Exec(ctx, `
			INSERT INTO tokens (address, symbol, name, category, created_at, first_seen_above_threshold, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (address) DO NOTHING`,
			t.Address, t.Symbol, t.Name, t.Category, t.CreatedAt, t.FirstSeenAboveThreshold)
		if err != nil {
			return err
		}
	}
	return nil
}

// preInsertMissingTokens guarantees foreign-key validity for the
// price-tick and transaction inserts that follow, by inserting a
// placeholder row (LOADING…/Unknown Token) for any address referenced by
// pending prices or transactions that isn't already a known token.
func preInsertMissingTokens(ctx context.Context, tx pgx.Tx, ticks []domain.PriceTick, txs []domain.Transaction) error {
	addresses := make(map[string]struct{})
	for _, t := range ticks {
		addresses[t.TokenAddress] = struct{}{}
	}
	for _, t := range txs {
		addresses[t.TokenAddress] = struct{}{}
	}

	for addr := range addresses {
		_, err := tx.Exec(ctx, `
			INSERT INTO tokens (address, symbol, name, category, created_at, updated_at)
			VALUES ($1, 'LOADING…', 'Unknown Token', '', now(), now())
			ON CONFLICT (address) DO NOTHING`,
			addr)
		if err != nil {
			return err
		}
	}
	return nil
}

func upsertPriceTicks(ctx context.Context, tx pgx.Tx, ticks []domain.PriceTick) error {
	for start := 0; start < len(ticks); start += priceChunkSize {
		end := start + priceChunkSize
		if end > len(ticks) {
			end = len(ticks)
		}
		for _, t := range ticks[start:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO timeseries.token_prices
					(token_address, time, price_usd, price_sol, virtual_sol_reserves, virtual_token_reserves,
					 real_sol_reserves, real_token_reserves, market_cap, liquidity_usd, slot, source)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
				ON CONFLICT (token_address, time) DO UPDATE SET
					price_usd = EXCLUDED.price_usd,
					price_sol = EXCLUDED.price_sol,
					market_cap = EXCLUDED.market_cap,
					liquidity_usd = EXCLUDED.liquidity_usd`,
				t.TokenAddress, t.Time, t.PriceUSD, t.PriceSOL, t.VirtualSOLReserves, t.VirtualTokenReserves,
				t.RealSOLReserves, t.RealTokenReserves, t.MarketCapUSD, t.LiquidityUSD, t.Slot, t.Source)
			if err != nil {
				return err
			}

			// Keep the denormalized "current state" columns on the token
			// row in sync so readers (buy-signal evaluator, dashboards)
			// never have to join against the time-series table.
			_, err = tx.Exec(ctx, `
				UPDATE tokens SET
					current_price_sol = $2,
					current_price_usd = $3,
					current_market_cap_usd = $4,
					current_liquidity_sol = $5,
					current_liquidity_usd = $6,
					curve_progress = $7,
					last_price_update = $8,
					updated_at = now()
				WHERE address = $1`,
				t.TokenAddress, t.PriceSOL, t.PriceUSD, t.MarketCapUSD,
				float64(t.RealSOLReserves)/1e9, t.LiquidityUSD, curveProgressFraction(t), t.Time)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func curveProgressFraction(t domain.PriceTick) float64 {
	progress := float64(t.RealSOLReserves) / float64(config.GraduationTargetLamports) * 100
	if progress > 100 {
		progress = 100
	}
	return progress
}

func filterKnownTokenAddresses(ctx context.Context, tx pgx.Tx, txs []domain.Transaction) (map[string]bool, error) {
	known := make(map[string]bool, len(txs))
	for _, t := range txs {
		if _, seen := known[t.TokenAddress]; seen {
			continue
		}
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tokens WHERE address = $1)`, t.TokenAddress).Scan(&exists)
		if err != nil {
			return nil, err
		}
		known[t.TokenAddress] = exists
	}
	return known, nil
}

func filterTransactions(txs []domain.Transaction, known map[string]bool) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if known[t.TokenAddress] {
			out = append(out, t)
		}
	}
	return out
}

func insertTransactions(ctx context.Context, tx pgx.Tx, txs []domain.Transaction) error {
	for _, t := range txs {
		_, err := tx.Exec(ctx, `
			INSERT INTO timeseries.token_transactions
				(signature, token_address, time, type, user_address, token_amount, sol_amount, price_usd, price_sol, slot, fee)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (signature, token_address, time) DO NOTHING`,
			t.Signature, t.TokenAddress, t.Time, t.Type, t.UserAddress, t.TokenAmount, t.SOLAmount,
			t.PriceUSD, t.PriceSOL, t.Slot, t.Fee)
		if err != nil {
			return err
		}
	}
	return nil
}
