package stream

import (
	"sync"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
)

// tokenSnapshot is the manager's in-memory view of a token's current
// classification-relevant fields, kept current as ticks arrive so the
// classifier can detect a crossing without a database round trip on
// every price update. The database row remains the system of record;
// this cache starts empty and holds only what this process has
// observed, and nothing loads it from persisted rows.
type tokenSnapshot struct {
	Category                domain.Category
	MarketCapUSD            float64
	PriceSOL                float64
	FirstSeenAboveThreshold time.Time
	BelowThresholdSince     *time.Time
	BuyAttempts             int
}

// tokenStates is a mutex-guarded map owned by the stream manager.
type tokenStates struct {
	mu    sync.RWMutex
	byMint map[string]*tokenSnapshot
}

func newTokenStates() *tokenStates {
	return &tokenStates{byMint: make(map[string]*tokenSnapshot)}
}

func (s *tokenStates) get(address string) (*tokenSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byMint[address]
	return snap, ok
}

func (s *tokenStates) set(address string, snap *tokenSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byMint[address] = snap
}

func (s *tokenStates) hydrate(address string, snap *tokenSnapshot) {
	s.set(address, snap)
}
