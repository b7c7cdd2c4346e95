// Package obs holds small ambient observability helpers; the stream
// flush path uses its Timer to log operation durations.
package obs

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures the duration of a single operation and logs it on Stop,
// escalating to a warning for operations that take unusually long.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for name.
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{start: time.Now(), name: name, log: log}
}

// Stop logs the elapsed duration and returns it.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Msg("performance measurement")

	switch {
	case duration > 30*time.Second:
		t.log.Warn().Str("operation", t.name).Dur("duration", duration).Msg("slow operation detected (>30s)")
	case duration > 10*time.Second:
		t.log.Info().Str("operation", t.name).Dur("duration", duration).Msg("operation took longer than expected (>10s)")
	}

	return duration
}

// StopWithContext logs the elapsed duration along with extra structured
// fields, used at the flush boundary to record buffer sizes alongside
// timing.
func (t *Timer) StopWithContext(context map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration)

	for key, value := range context {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	event.Msg("performance measurement")
	return duration
}
