package volume

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/events"
)

// ReEvaluator is invoked 3 seconds after a critical volume alert fires on
// an AIM token, so the buy-signal evaluator can re-run with the alert
// context fresh.
type ReEvaluator interface {
	ScheduleReEvaluation(tokenAddress string, after time.Duration)
}

// Service ties the rolling-window Tracker to the AlertDetector and emits
// the resulting events, gated on the token's current category.
type Service struct {
	tracker  *Tracker
	detector *AlertDetector
	eventMgr *events.Manager
	reEval   ReEvaluator
	log      zerolog.Logger
}

func NewService(tracker *Tracker, detector *AlertDetector, eventMgr *events.Manager, reEval ReEvaluator, log zerolog.Logger) *Service {
	return &Service{
		tracker:  tracker,
		detector: detector,
		eventMgr: eventMgr,
		reEval:   reEval,
		log:      log.With().Str("component", "volume.Service").Logger(),
	}
}

// Record ingests a transaction and, if it moved the eligible window,
// re-evaluates alerts for the token.
func (s *Service) Record(tokenAddress string, entry Entry, category domain.Category, now time.Time) {
	s.tracker.Record(tokenAddress, entry, now)
	if !Eligible(entry) {
		return
	}
	s.evaluate(tokenAddress, category, now)
}

func (s *Service) evaluate(tokenAddress string, category domain.Category, now time.Time) {
	metrics1h := s.tracker.Metrics(tokenAddress, domain.Window1h, now)
	metrics24h := s.tracker.Metrics(tokenAddress, domain.Window24h, now)

	alerts := s.detector.Evaluate(tokenAddress, metrics1h, metrics24h, now)
	for _, alert := range alerts {
		s.emit(alert)
		if alert.Severity == domain.SeverityCritical && category == domain.CategoryAim && s.reEval != nil {
			s.reEval.ScheduleReEvaluation(tokenAddress, 3*time.Second)
		}
	}
}

func (s *Service) emit(alert domain.VolumeAlert) {
	s.log.Info().
		Str("token", alert.TokenAddress).
		Str("kind", string(alert.Kind)).
		Str("severity", string(alert.Severity)).
		Msg("volume alert")

	s.eventMgr.EmitTyped("volume", events.NewVolumeAlertData(alert))

	switch alert.Kind {
	case domain.VolumeAlertSpike:
		s.eventMgr.EmitTyped("volume", &events.VolumeSpikeData{TokenAddress: alert.TokenAddress, Multiple: alert.Value})
	case domain.VolumeAlertImbalance:
		s.eventMgr.EmitTyped("volume", &events.VolumeImbalanceData{TokenAddress: alert.TokenAddress, BuyRatio: alert.Value})
	case domain.VolumeAlertUnusual:
		s.eventMgr.EmitTyped("volume", &events.UnusualVolumePatternData{TokenAddress: alert.TokenAddress, Detail: alert.Detail})
	}
}
