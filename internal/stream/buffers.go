package stream

import (
	"sync"

	"github.com/aristath/pumpstream/internal/domain"
)

// buffers holds the three in-memory collections the manager owns
// exclusively; only the manager ever mutates them, per the shared
// resource policy: analytics subsystems keep their own caches.
type buffers struct {
	mu           sync.Mutex
	priceTicks   []domain.PriceTick
	transactions []domain.Transaction
	newTokens    []domain.Token
}

func newBuffers() *buffers {
	return &buffers{}
}

func (b *buffers) addPriceTick(tick domain.PriceTick) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.priceTicks = append(b.priceTicks, tick)
	return b.size()
}

func (b *buffers) addTransaction(tx domain.Transaction) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transactions = append(b.transactions, tx)
	return b.size()
}

func (b *buffers) addNewToken(t domain.Token) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newTokens = append(b.newTokens, t)
	return b.size()
}

// size must be called with b.mu held.
func (b *buffers) size() int {
	return len(b.priceTicks) + len(b.transactions) + len(b.newTokens)
}

// drain atomically swaps in fresh empty slices and returns what had
// accumulated, so inbound events can keep appending to the buffers while
// a flush is in flight against the drained snapshot.
func (b *buffers) drain() (ticks []domain.PriceTick, txs []domain.Transaction, tokens []domain.Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ticks, b.priceTicks = b.priceTicks, nil
	txs, b.transactions = b.transactions, nil
	tokens, b.newTokens = b.newTokens, nil
	return
}
