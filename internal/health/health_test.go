package health

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeQueue struct{ depth int }

func (f fakeQueue) Len() int { return f.depth }

func TestRun_WarnsOnStaleFlush(t *testing.T) {
	job := NewJob(Config{
		Log: zerolog.Nop(),
		StreamStatus: func() StreamStatus {
			return StreamStatus{Connected: true, LastFlushAt: time.Now().Add(-5 * time.Minute)}
		},
		MaxFlushSilence: time.Minute,
	})

	// Nil DB is one issue; the stale flush is the second.
	err := job.Run()
	assert.EqualError(t, err, "health check found 2 issue(s)")
}

func TestRun_WarnsOnQueueBacklog(t *testing.T) {
	job := NewJob(Config{
		Log:             zerolog.Nop(),
		HolderQueue:     fakeQueue{depth: 1000},
		MaxQueueBacklog: 500,
	})

	// Nil DB is one issue; the queue backlog is the second.
	err := job.Run()
	assert.EqualError(t, err, "health check found 2 issue(s)")
}

func TestRun_NoDBConfiguredIsAFailure(t *testing.T) {
	job := NewJob(Config{Log: zerolog.Nop()})
	err := job.Run()
	assert.Error(t, err)
}
