// Package solprice maintains the current SOL/USD rate used throughout
// pricing and market-cap calculations, polling an external source on a
// timer and falling back to the last known value when a poll fails.
package solprice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher retrieves the current SOL/USD rate from an upstream source.
// The default implementation hits a public price API; tests supply a
// stub.
type Fetcher interface {
	FetchSOLUSD(ctx context.Context) (float64, error)
}

// HTTPFetcher fetches SOL/USD from a configurable HTTP JSON endpoint
// (e.g. a CoinGecko-compatible simple-price endpoint) expecting a body
// shaped like {"solana":{"usd":123.45}}.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (f *HTTPFetcher) FetchSOLUSD(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("solprice: build request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("solprice: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("solprice: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("solprice: read body: %w", err)
	}

	var payload struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("solprice: decode body: %w", err)
	}
	if payload.Solana.USD <= 0 {
		return 0, fmt.Errorf("solprice: non-positive rate in response")
	}

	return payload.Solana.USD, nil
}

// Service polls Fetcher on an interval, serving the last good value
// (even if stale) whenever a poll fails — stale data beats no data for
// a pricing dependency this central.
type Service struct {
	fetcher  Fetcher
	interval time.Duration
	log      zerolog.Logger

	mu      sync.RWMutex
	current float64
	staleAt time.Time
}

// New constructs a Service. Current() returns 0 until the first
// successful Bootstrap or poll.
func New(fetcher Fetcher, interval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		interval: interval,
		log:      log.With().Str("component", "solprice").Logger(),
	}
}

// Bootstrap performs the first synchronous fetch; a StartupError-worthy
// failure here should abort process startup, since no component can
// price anything without an initial rate.
func (s *Service) Bootstrap(ctx context.Context) error {
	rate, err := s.fetcher.FetchSOLUSD(ctx)
	if err != nil {
		return fmt.Errorf("solprice: bootstrap: %w", err)
	}
	s.set(rate)
	return nil
}

// Run polls on s.interval until ctx is cancelled. Failed polls are
// logged and leave the previously cached rate in place.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rate, err := s.fetcher.FetchSOLUSD(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("SOL/USD poll failed, serving stale rate")
				continue
			}
			s.set(rate)
		}
	}
}

// Current returns the last known SOL/USD rate and whether it is stale
// relative to the configured poll interval.
func (s *Service) Current() (rate float64, stale bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, time.Since(s.staleAt) > 2*s.interval
}

func (s *Service) set(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = rate
	s.staleAt = time.Now()
}
