// Package health runs the periodic liveness sweep: database reachability,
// feed connectivity, flush freshness, and analytics queue backlog.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/database"
)

// StreamStatus is the subset of stream.Stats the health job needs,
// kept narrow so this package doesn't import internal/stream.
type StreamStatus struct {
	Connected   bool
	LastFlushAt time.Time
}

// QueueDepth reports the current backlog of a single analytics queue.
type QueueDepth interface {
	Len() int
}

// Config wires the dependencies a single check needs.
type Config struct {
	Log                zerolog.Logger
	DB                 *database.DB
	StreamStatus       func() StreamStatus
	HolderQueue        QueueDepth
	MaxFlushSilence    time.Duration
	MaxQueueBacklog    int
	HealthCheckTimeout time.Duration
}

// Job runs the checks in sequence and logs a single warning per failing
// check rather than stopping at the first problem — operators want the
// full picture on every run, not just the first symptom.
type Job struct {
	cfg Config
}

func NewJob(cfg Config) *Job {
	if cfg.MaxFlushSilence == 0 {
		cfg.MaxFlushSilence = 60 * time.Second
	}
	if cfg.MaxQueueBacklog == 0 {
		cfg.MaxQueueBacklog = 500
	}
	if cfg.HealthCheckTimeout == 0 {
		cfg.HealthCheckTimeout = 5 * time.Second
	}
	return &Job{cfg: cfg}
}

func (j *Job) Name() string { return "health_check" }

func (j *Job) Run() error {
	log := j.cfg.Log.With().Str("job", "health_check").Logger()

	var failures int

	if err := j.checkDatabase(); err != nil {
		log.Error().Err(err).Msg("database unreachable")
		failures++
	}

	if j.cfg.StreamStatus != nil {
		status := j.cfg.StreamStatus()
		if !status.Connected {
			log.Warn().Msg("feed disconnected")
			failures++
		}
		if !status.LastFlushAt.IsZero() && time.Since(status.LastFlushAt) > j.cfg.MaxFlushSilence {
			log.Warn().
				Dur("silence", time.Since(status.LastFlushAt)).
				Msg("no flush within expected window")
			failures++
		}
	}

	if j.cfg.HolderQueue != nil {
		if depth := j.cfg.HolderQueue.Len(); depth > j.cfg.MaxQueueBacklog {
			log.Warn().Int("depth", depth).Msg("holder analytics queue backlog too high")
			failures++
		}
	}

	if failures == 0 {
		log.Debug().Msg("health check passed")
		return nil
	}

	return fmt.Errorf("health check found %d issue(s)", failures)
}

func (j *Job) checkDatabase() error {
	if j.cfg.DB == nil {
		return fmt.Errorf("database not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.HealthCheckTimeout)
	defer cancel()
	return j.cfg.DB.HealthCheck(ctx, j.cfg.HealthCheckTimeout)
}
