// Package volume maintains in-memory rolling buy/sell windows per token
// and raises spike/imbalance/unusual-pattern alerts.
package volume

import (
	"sync"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
)

// Entry is a single transaction projected for volume accounting.
type Entry struct {
	Type      domain.TransactionType
	USDValue  float64
	Timestamp time.Time
	Category  domain.Category
}

const minUSDValue = 10

// Eligible reports whether entry should be counted at all: its category
// must be MEDIUM/HIGH/AIM and its USD value at least minUSDValue.
func Eligible(entry Entry) bool {
	if entry.USDValue < minUSDValue {
		return false
	}
	switch entry.Category {
	case domain.CategoryMedium, domain.CategoryHigh, domain.CategoryAim:
		return true
	default:
		return false
	}
}

const maxWindow = 24 * time.Hour

// Tracker holds a per-token ring of recent eligible entries, pruned to
// the last 24h, from which the 1h/4h/24h windows are derived on demand.
type Tracker struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string][]Entry)}
}

// Record appends entry if eligible, and prunes entries older than 24h.
func (t *Tracker) Record(tokenAddress string, entry Entry, now time.Time) {
	if !Eligible(entry) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	list := append(t.entries[tokenAddress], entry)
	cutoff := now.Add(-maxWindow)
	pruned := list[:0]
	for _, e := range list {
		if e.Timestamp.After(cutoff) {
			pruned = append(pruned, e)
		}
	}
	t.entries[tokenAddress] = pruned
}

// Metrics computes VolumeMetrics for tokenAddress over window, as of
// now.
func (t *Tracker) Metrics(tokenAddress string, window domain.VolumeWindow, now time.Time) domain.VolumeMetrics {
	t.mu.Lock()
	entries := append([]Entry(nil), t.entries[tokenAddress]...)
	t.mu.Unlock()

	since := windowStart(window, now)

	var buyUSD, sellUSD float64
	var count int
	for _, e := range entries {
		if e.Timestamp.Before(since) {
			continue
		}
		count++
		switch e.Type {
		case domain.TransactionBuy:
			buyUSD += e.USDValue
		case domain.TransactionSell:
			sellUSD += e.USDValue
		}
	}

	total := buyUSD + sellUSD
	buyRatio := 0.0
	if total > 0 {
		buyRatio = buyUSD / total
	}

	return domain.VolumeMetrics{
		TokenAddress: tokenAddress,
		Window:       window,
		TotalUSD:     int64(total),
		BuyUSD:       buyUSD,
		SellUSD:      sellUSD,
		TxCount:      count,
		BuyRatio:     buyRatio,
		ComputedAt:   now,
	}
}

func windowStart(window domain.VolumeWindow, now time.Time) time.Time {
	switch window {
	case domain.Window1h:
		return now.Add(-1 * time.Hour)
	case domain.Window4h:
		return now.Add(-4 * time.Hour)
	default:
		return now.Add(-24 * time.Hour)
	}
}
