// Package config loads runtime configuration from the environment, with an
// optional local .env file layered underneath for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// GraduationTargetLamports is the real-SOL-reserve target at which a
// bonding curve is considered complete. Expressed in lamports (1 SOL =
// 1e9 lamports) so it can be compared directly against on-chain reserves.
const GraduationTargetLamports uint64 = 85_000_000_000

// CategoryThresholds holds the USD market-cap band boundaries used by the
// lifecycle classifier. Values are lower bounds; a market cap below
// EntryUSD means the token is not persisted at all.
type CategoryThresholds struct {
	EntryUSD     float64
	LowUSD       float64
	MediumUSD    float64
	HighUSD      float64
	AimUSD       float64
	GraduatedUSD float64
}

// DefaultCategoryThresholds returns the band boundaries named in the
// lifecycle classifier design.
func DefaultCategoryThresholds() CategoryThresholds {
	return CategoryThresholds{
		EntryUSD:     8_000,
		LowUSD:       8_000,
		MediumUSD:    15_000,
		HighUSD:      25_000,
		AimUSD:       35_000,
		GraduatedUSD: 105_000,
	}
}

// Config is the fully resolved runtime configuration for the ingestion
// engine.
type Config struct {
	LogLevel  string
	LogPretty bool

	DatabaseURL string

	GRPCEndpoint string
	GRPCToken    string

	SolanaRPCURL string

	FlushBatchSize      int
	FlushInterval       time.Duration
	PriceRecalcInterval time.Duration

	SolPricePollInterval time.Duration

	Thresholds CategoryThresholds

	MinLiquidityUSD        float64
	MaxTop10Percent        float64
	MinSecurityScore       float64
	BlacklistSecurityScore float64
	MaxBuyAttempts         int

	HolderRequestDelay time.Duration
	HolderMaxRetries   int

	QualityWeightLiquidity     float64
	QualityWeightVolume        float64
	QualityWeightVolatility    float64
	QualityWeightConcentration float64

	VolumeSpikeMultiple    float64
	VolumeImbalanceMinTx   int
	UnusualPatternWindow   time.Duration
	UnusualPatternMinCount int

	MilestoneCooldown time.Duration

	DevMode bool
}

// Load reads configuration from the process environment, first loading a
// local .env file if one is present (a missing .env is not an error,
// matching development-convenience tooling elsewhere in the ecosystem).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", true),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		GRPCEndpoint: getEnv("GRPC_ENDPOINT", ""),
		GRPCToken:    getEnv("GRPC_TOKEN", ""),

		SolanaRPCURL: getEnv("SOLANA_RPC_URL", ""),

		FlushBatchSize:      getEnvInt("FLUSH_BATCH_SIZE", 1000),
		FlushInterval:       getEnvDurationMS("FLUSH_INTERVAL_MS", 1000*time.Millisecond),
		PriceRecalcInterval: getEnvDurationMS("PRICE_RECALC_INTERVAL_MS", 300_000*time.Millisecond),

		SolPricePollInterval: getEnvDurationS("SOL_PRICE_POLL_INTERVAL_S", 30*time.Second),

		Thresholds: DefaultCategoryThresholds(),

		MinLiquidityUSD:        getEnvFloat("MIN_LIQUIDITY_USD", 7_500),
		MaxTop10Percent:        getEnvFloat("MAX_TOP10_PERCENT", 30),
		MinSecurityScore:       getEnvFloat("MIN_SECURITY_SCORE", 60),
		BlacklistSecurityScore: getEnvFloat("BLACKLIST_SECURITY_SCORE", 90),
		MaxBuyAttempts:         getEnvInt("MAX_BUY_ATTEMPTS", 3),

		HolderRequestDelay: getEnvDurationMS("HOLDER_REQUEST_DELAY_MS", 250*time.Millisecond),
		HolderMaxRetries:   getEnvInt("HOLDER_MAX_RETRIES", 3),

		QualityWeightLiquidity:     getEnvFloat("QUALITY_WEIGHT_LIQUIDITY", 0.4),
		QualityWeightVolume:        getEnvFloat("QUALITY_WEIGHT_VOLUME", 0.25),
		QualityWeightVolatility:    getEnvFloat("QUALITY_WEIGHT_VOLATILITY", 0.15),
		QualityWeightConcentration: getEnvFloat("QUALITY_WEIGHT_CONCENTRATION", 0.2),

		VolumeSpikeMultiple:    getEnvFloat("VOLUME_SPIKE_MULTIPLE", 5),
		VolumeImbalanceMinTx:   getEnvInt("VOLUME_IMBALANCE_MIN_TX", 10),
		UnusualPatternWindow:   getEnvDurationMin("UNUSUAL_PATTERN_WINDOW_MIN", 30*time.Minute),
		UnusualPatternMinCount: getEnvInt("UNUSUAL_PATTERN_MIN_COUNT", 3),

		MilestoneCooldown: getEnvDurationMin("MILESTONE_COOLDOWN_MIN", 30*time.Minute),

		DevMode: getEnvBool("DEV_MODE", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.GRPCEndpoint == "" {
		return fmt.Errorf("GRPC_ENDPOINT is required")
	}
	if c.FlushBatchSize <= 0 {
		return fmt.Errorf("FLUSH_BATCH_SIZE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDurationMS(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(i) * time.Millisecond
}

func getEnvDurationS(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(i) * time.Second
}

func getEnvDurationMin(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(i) * time.Minute
}
