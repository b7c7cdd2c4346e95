// Package repository is the read/write boundary between the analytics
// subsystems and the Postgres/TimescaleDB schema: it implements the
// narrow reader/writer interfaces each subsystem declares for itself
// (liquidity.PriceHistoryReader, holders.MetricsWriter, ...) against one
// shared *database.DB.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aristath/pumpstream/internal/database"
	"github.com/aristath/pumpstream/internal/domain"
)

type Repository struct {
	db *database.DB
}

func New(db *database.DB) *Repository {
	return &Repository{db: db}
}

// RecentTicks implements liquidity.PriceHistoryReader.
func (r *Repository) RecentTicks(ctx context.Context, tokenAddress string, since time.Time) ([]domain.PriceTick, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT token_address, time, price_usd, price_sol, virtual_sol_reserves, virtual_token_reserves,
		       real_sol_reserves, real_token_reserves, market_cap, liquidity_usd, slot, source
		FROM timeseries.token_prices
		WHERE token_address = $1 AND time >= $2
		ORDER BY time ASC`, tokenAddress, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []domain.PriceTick
	for rows.Next() {
		var t domain.PriceTick
		if err := rows.Scan(&t.TokenAddress, &t.Time, &t.PriceUSD, &t.PriceSOL,
			&t.VirtualSOLReserves, &t.VirtualTokenReserves, &t.RealSOLReserves, &t.RealTokenReserves,
			&t.MarketCapUSD, &t.LiquidityUSD, &t.Slot, &t.Source); err != nil {
			return nil, err
		}
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// WriteHolderMetrics implements holders.MetricsWriter.
func (r *Repository) WriteHolderMetrics(ctx context.Context, metrics domain.HolderMetrics) error {
	distribution, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		UPDATE tokens SET
			holders = $2,
			top10_percent = $3,
			top25_percent = $4,
			holder_distribution = $5,
			holder_last_updated = $6,
			updated_at = now()
		WHERE address = $1`,
		metrics.TokenAddress, metrics.TotalHolders, metrics.Top10Percent, metrics.Top25Percent,
		distribution, metrics.LastUpdated)
	return err
}

// LoadToken fetches the full denormalized token row, used by the
// buy-signal evaluator.
func (r *Repository) LoadToken(ctx context.Context, tokenAddress string) (*domain.Token, error) {
	var t domain.Token
	err := r.db.Pool.QueryRow(ctx, `
		SELECT address, symbol, name, category, current_price_sol, current_price_usd,
		       current_market_cap_usd, current_liquidity_sol, current_liquidity_usd, curve_progress,
		       created_at, first_seen_above_threshold, holders, top10_percent, top25_percent,
		       holder_last_updated, solsniffer_score, buy_attempts
		FROM tokens WHERE address = $1`, tokenAddress).Scan(
		&t.Address, &t.Symbol, &t.Name, &t.Category, &t.CurrentPriceSOL, &t.CurrentPriceUSD,
		&t.CurrentMarketCapUSD, &t.CurrentLiquiditySOL, &t.CurrentLiquidityUSD, &t.CurveProgress,
		&t.CreatedAt, &t.FirstSeenAboveThreshold, &t.Holders, &t.Top10Percent, &t.Top25Percent,
		&t.HolderLastUpdated, &t.SolsnifferScore, &t.BuyAttempts)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// UpdateTokenMetadata applies a later description update from an
// asynchronous, fire-and-forget metadata-enrichment source (symbol,
// name, description, image URL) without touching any price-derived
// column.
func (r *Repository) UpdateTokenMetadata(ctx context.Context, tokenAddress, symbol, name, description, imageURL string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE tokens SET
			symbol = $2,
			name = $3,
			description = $4,
			image_url = $5,
			updated_at = now()
		WHERE address = $1`,
		tokenAddress, symbol, name, description, imageURL)
	return err
}

// CountPendingMetadata reports how many tracked tokens still carry the
// flush-time placeholder symbol/name, i.e. are still awaiting their
// first update from an external metadata-enrichment source.
func (r *Repository) CountPendingMetadata(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM tokens WHERE symbol = 'LOADING…' OR name = 'Unknown Token'`).Scan(&n)
	return n, err
}

// LoadTokenAddressesByCategories lists every token address currently in
// any of the given categories, used by the periodic holder/growth/
// quality/milestone sweep jobs so each runs over every non-terminal
// band rather than AIM alone.
func (r *Repository) LoadTokenAddressesByCategories(ctx context.Context, categories ...domain.Category) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT address FROM tokens WHERE category = ANY($1)`, categories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// IncrementBuyAttempts records that a buy signal passed its gates for
// tokenAddress, enforcing the anti-spam cap on future evaluations.
func (r *Repository) IncrementBuyAttempts(ctx context.Context, tokenAddress string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE tokens SET buy_attempts = buy_attempts + 1, updated_at = now() WHERE address = $1`, tokenAddress)
	return err
}

// WriteBuySignal persists an evaluated signal for later review/audit.
func (r *Repository) WriteBuySignal(ctx context.Context, signal domain.BuySignal) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO buy_signals
			(token_address, passed, reason, confidence, market_cap_usd, liquidity_usd, holders,
			 top10_percent, security_score, risk_level, evaluated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		signal.TokenAddress, signal.Passed, signal.Reason, signal.Confidence, signal.MarketCapUSD,
		signal.LiquidityUSD, signal.Holders, signal.Top10Percent, signal.SecurityScore,
		signal.RiskLevel, signal.EvaluatedAt)
	return err
}
