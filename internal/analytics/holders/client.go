package holders

import (
	"context"
	"sort"
	"time"
)

// HolderAccount is a single non-zero token-account balance for a mint.
type HolderAccount struct {
	Owner   string
	Balance float64
}

// RPCClient fetches raw holder-account balances for a mint. The
// production implementation calls a Solana RPC/DAS endpoint; tests
// supply a stub.
type RPCClient interface {
	FetchHolderAccounts(ctx context.Context, tokenAddress string) ([]HolderAccount, error)
}

// request is one unit of work handed to the rate-limited worker
// goroutine.
type request struct {
	ctx          context.Context
	tokenAddress string
	reply        chan requestResult
}

type requestResult struct {
	accounts []HolderAccount
	err      error
}

// RateLimitedClient serializes calls to an inner RPCClient through a
// single worker goroutine that enforces a minimum inter-request delay,
// the same shape used elsewhere in this codebase to respect third-party
// API rate limits: a buffered request channel drained by one goroutine
// that sleeps between calls.
type RateLimitedClient struct {
	inner RPCClient
	delay time.Duration

	queue chan request
	done  chan struct{}
}

func NewRateLimitedClient(inner RPCClient, delay time.Duration) *RateLimitedClient {
	c := &RateLimitedClient{
		inner: inner,
		delay: delay,
		queue: make(chan request, 256),
		done:  make(chan struct{}),
	}
	go c.worker()
	return c
}

func (c *RateLimitedClient) worker() {
	var last time.Time

	for {
		select {
		case <-c.done:
			return
		case req := <-c.queue:
			if wait := c.delay - time.Since(last); wait > 0 {
				time.Sleep(wait)
			}
			last = time.Now()
			accounts, err := c.inner.FetchHolderAccounts(req.ctx, req.tokenAddress)
			req.reply <- requestResult{accounts: accounts, err: err}
		}
	}
}

// FetchHolderAccounts enqueues a request and blocks for its result.
func (c *RateLimitedClient) FetchHolderAccounts(ctx context.Context, tokenAddress string) ([]HolderAccount, error) {
	reply := make(chan requestResult, 1)
	select {
	case c.queue <- request{ctx: ctx, tokenAddress: tokenAddress, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-reply:
		return result.accounts, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the worker goroutine.
func (c *RateLimitedClient) Close() {
	close(c.done)
}

// ConcentrationMetrics computes total holders and top-N concentration
// percentages from a set of holder accounts, sorted descending by
// balance.
func ConcentrationMetrics(accounts []HolderAccount) (total int, top1, top5, top10, top25, top50 float64) {
	sorted := append([]HolderAccount(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Balance > sorted[j].Balance })

	var totalBalance float64
	for _, a := range sorted {
		totalBalance += a.Balance
	}
	if totalBalance == 0 {
		return len(sorted), 0, 0, 0, 0, 0
	}

	pct := func(n int) float64 {
		if n > len(sorted) {
			n = len(sorted)
		}
		var sum float64
		for _, a := range sorted[:n] {
			sum += a.Balance
		}
		return sum / totalBalance * 100
	}

	return len(sorted), pct(1), pct(5), pct(10), pct(25), pct(50)
}
