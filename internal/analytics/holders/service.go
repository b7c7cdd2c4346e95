package holders

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/events"
)

// RefreshInterval returns how often a token of the given category should
// have its holder metrics refreshed.
func RefreshInterval(category domain.Category) time.Duration {
	switch category {
	case domain.CategoryAim:
		return 3 * time.Minute
	case domain.CategoryHigh:
		return 10 * time.Minute
	case domain.CategoryMedium:
		return 60 * time.Minute
	default:
		return 6 * time.Hour
	}
}

// IsStale reports whether lastUpdated is old enough to warrant a
// refresh for category.
func IsStale(category domain.Category, lastUpdated time.Time, now time.Time) bool {
	if lastUpdated.IsZero() {
		return true
	}
	return now.Sub(lastUpdated) >= RefreshInterval(category)
}

// MetricsWriter persists computed HolderMetrics to the token row.
type MetricsWriter interface {
	WriteHolderMetrics(ctx context.Context, metrics domain.HolderMetrics) error
}

// ReEvaluator is invoked 5 seconds after an AIM token's holder metrics
// are refreshed, to let the buy-signal evaluator re-run with fresh data.
type ReEvaluator interface {
	ScheduleReEvaluation(tokenAddress string, after time.Duration)
}

const maxRetries = 3

// Service runs a fixed pool of workers dequeuing jobs from a Queue,
// fetching accounts through a RateLimitedClient, and writing computed
// metrics.
type Service struct {
	queue    *Queue
	client   RPCClient
	writer   MetricsWriter
	eventMgr *events.Manager
	reEval   ReEvaluator
	log      zerolog.Logger
}

func NewService(queue *Queue, client RPCClient, writer MetricsWriter, eventMgr *events.Manager, reEval ReEvaluator, log zerolog.Logger) *Service {
	return &Service{
		queue:    queue,
		client:   client,
		writer:   writer,
		eventMgr: eventMgr,
		reEval:   reEval,
		log:      log.With().Str("component", "holders.Service").Logger(),
	}
}

// Run starts numWorkers goroutines dequeuing jobs until ctx is
// cancelled, at which point the queue is closed so workers exit.
func (s *Service) Run(ctx context.Context, numWorkers int) {
	go func() {
		<-ctx.Done()
		s.queue.Close()
	}()

	done := make(chan struct{}, numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			s.worker(ctx)
			done <- struct{}{}
		}()
	}
	for i := 0; i < numWorkers; i++ {
		<-done
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		job, ok := s.queue.Dequeue()
		if !ok {
			return
		}
		s.process(ctx, job)
	}
}

func (s *Service) process(ctx context.Context, job *Job) {
	var accounts []HolderAccount
	var err error

	for attempt := 0; ; attempt++ {
		accounts, err = s.client.FetchHolderAccounts(ctx, job.TokenAddress)
		if err == nil || attempt == maxRetries {
			break
		}
		if ctx.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Str("token", job.TokenAddress).Int("attempt", attempt+1).Msg("holder fetch failed, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second * time.Duration(attempt+1)):
		}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("token", job.TokenAddress).Msg("holder fetch exhausted retries, dropping")
		return
	}

	total, top1, top5, top10, top25, top50 := ConcentrationMetrics(accounts)
	metrics := domain.HolderMetrics{
		TokenAddress: job.TokenAddress,
		TotalHolders: total,
		Top1Percent:  top1,
		Top5Percent:  top5,
		Top10Percent: top10,
		Top25Percent: top25,
		Top50Percent: top50,
		DataSource:   "rpc-program-accounts",
		LastUpdated:  time.Now(),
	}

	if err := s.writer.WriteHolderMetrics(ctx, metrics); err != nil {
		s.log.Error().Err(err).Str("token", job.TokenAddress).Msg("failed to persist holder metrics")
		return
	}

	s.eventMgr.EmitTyped("holders", &events.HoldersUpdatedData{TokenAddress: job.TokenAddress, Metrics: metrics})

	if job.Category == domain.CategoryAim && s.reEval != nil {
		s.reEval.ScheduleReEvaluation(job.TokenAddress, 5*time.Second)
	}
}
