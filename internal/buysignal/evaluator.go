// Package buysignal runs the layered gate that decides whether an AIM-band
// token is worth surfacing as a buy candidate.
package buysignal

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
)

// Evaluator runs the fixed sequence of safety gates against a token's
// current analytics snapshot.
type Evaluator struct {
	cfg config.Config
	log zerolog.Logger
}

func New(cfg config.Config, log zerolog.Logger) *Evaluator {
	return &Evaluator{cfg: cfg, log: log.With().Str("component", "buysignal.Evaluator").Logger()}
}

// Evaluate returns nil when the token is not in the AIM category or its
// analytics are not yet complete enough to evaluate (holders,
// concentration, or security score still missing). Once evaluable it
// always returns a BuySignal, Passed true or
// false, with Reason explaining the first failing gate.
func (e *Evaluator) Evaluate(token *domain.Token, quality *domain.LiquidityQualityScore, growth *domain.LiquidityGrowthMetrics, now time.Time) *domain.BuySignal {
	if !e.dataComplete(token) {
		return nil
	}

	securityScore := *token.SolsnifferScore

	signal := &domain.BuySignal{
		TokenAddress:           token.Address,
		MarketCapUSD:           token.CurrentMarketCapUSD,
		LiquidityUSD:           liquidityUSD(token),
		Holders:                token.Holders,
		Top10Percent:           token.Top10Percent,
		SecurityScore:          securityScore,
		LiquidityQualityScore:  quality,
		LiquidityGrowthMetrics: growth,
		EvaluatedAt:            now,
	}

	if reason, ok := e.runGates(token, securityScore); !ok {
		signal.Passed = false
		signal.Reason = reason
		signal.RiskLevel = domain.RiskHigh
		return signal
	}

	signal.Passed = true
	signal.Reason = "all gates passed"
	signal.Confidence = confidence(quality, growth)
	signal.RiskLevel = riskLevel(signal.Confidence, token.Top10Percent, e.cfg)

	return signal
}

func (e *Evaluator) dataComplete(token *domain.Token) bool {
	if token.Category != domain.CategoryAim {
		return false
	}
	if token.Holders <= 0 || token.HolderLastUpdated == nil {
		return false
	}
	if token.Top10Percent <= 0 {
		return false
	}
	if token.SolsnifferScore == nil {
		return false
	}
	return true
}

// runGates is the layered validation, modeled after the portfolio
// trading desk's ValidateTrade: cheapest/most-decisive checks first, each
// returning the first failure reason.
func (e *Evaluator) runGates(token *domain.Token, securityScore float64) (reason string, ok bool) {
	// Layer 0: anti-spam cap, checked first since it needs no further
	// computation.
	if token.BuyAttempts >= e.cfg.MaxBuyAttempts {
		return "max buy attempts reached", false
	}

	// Layer 1: lifecycle gate. Graduated tokens never pass.
	if token.IsGraduated() {
		return "token has graduated", false
	}
	if token.Category != domain.CategoryAim {
		return "token not in AIM band", false
	}

	// Layer 2: liquidity floor.
	if liquidityUSD(token) < e.cfg.MinLiquidityUSD {
		return "liquidity below minimum", false
	}

	// Layer 3: holder concentration ceiling.
	if token.Top10Percent > e.cfg.MaxTop10Percent {
		return "top10 concentration too high", false
	}

	// Layer 4: security score. Must clear the floor and must not sit at
	// the blacklist value.
	if securityScore <= e.cfg.MinSecurityScore {
		return "security score too low", false
	}
	if securityScore == e.cfg.BlacklistSecurityScore {
		return "security score blacklisted", false
	}

	return "", true
}

func liquidityUSD(token *domain.Token) float64 {
	return token.CurrentLiquidityUSD
}

// confidence raises above a flat baseline when the optional supporting
// signals (liquidity quality grade, growth momentum) corroborate the
// gate pass; neither is required to pass the gates themselves.
func confidence(quality *domain.LiquidityQualityScore, growth *domain.LiquidityGrowthMetrics) float64 {
	score := 0.5

	if quality != nil {
		switch quality.Suitability {
		case domain.SuitabilityExcellent:
			score += 0.3
		case domain.SuitabilityGood:
			score += 0.2
		case domain.SuitabilityFair:
			score += 0.05
		}
	}

	if growth != nil && growth.Momentum == domain.MomentumHigh {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	return score
}

func riskLevel(confidence float64, top10Percent float64, cfg config.Config) domain.RiskLevel {
	switch {
	case confidence >= 0.8 && top10Percent < cfg.MaxTop10Percent/2:
		return domain.RiskLow
	case confidence >= 0.6:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}
