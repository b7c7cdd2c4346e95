package events

import (
	"time"

	"github.com/aristath/pumpstream/internal/domain"
)

// NewTokenData is emitted the moment a token is first persisted.
type NewTokenData struct {
	TokenAddress string          `json:"token_address"`
	Category     domain.Category `json:"category"`
	MarketCapUSD float64         `json:"market_cap_usd"`
}

func (d *NewTokenData) EventType() EventType { return NewToken }

// MetadataUpdatedData is emitted when a later metadata-enrichment source
// updates symbol/name/description/image for a token.
type MetadataUpdatedData struct {
	TokenAddress string `json:"token_address"`
}

func (d *MetadataUpdatedData) EventType() EventType { return MetadataUpdated }

// HoldersUpdatedData is emitted when holder analytics refreshes a
// token's concentration metrics.
type HoldersUpdatedData struct {
	TokenAddress string                `json:"token_address"`
	Metrics      domain.HolderMetrics  `json:"metrics"`
}

func (d *HoldersUpdatedData) EventType() EventType { return HoldersUpdated }

// CategoryChangedData is emitted by the lifecycle classifier on every
// crossing.
type CategoryChangedData struct {
	TokenAddress string          `json:"token_address"`
	FromCategory domain.Category `json:"from_category"`
	ToCategory   domain.Category `json:"to_category"`
	MarketCapUSD float64         `json:"market_cap_usd"`
}

func (d *CategoryChangedData) EventType() EventType { return CategoryChanged }

// PumpDetectedData / DumpDetectedData describe a sharp price move over a
// short window. No component in this module emits them; only the event
// types and data shapes are defined.
type PumpDetectedData struct {
	TokenAddress string  `json:"token_address"`
	ChangePct    float64 `json:"change_pct"`
}

func (d *PumpDetectedData) EventType() EventType { return PumpDetected }

type DumpDetectedData struct {
	TokenAddress string  `json:"token_address"`
	ChangePct    float64 `json:"change_pct"`
}

func (d *DumpDetectedData) EventType() EventType { return DumpDetected }

// NearGraduationData is emitted alongside any graduation-progress
// milestone alert raised while curve progress is at or above 90%.
type NearGraduationData struct {
	TokenAddress  string  `json:"token_address"`
	CurveProgress float64 `json:"curve_progress"`
}

func (d *NearGraduationData) EventType() EventType { return NearGraduation }

// TokenGraduatedData is emitted once when real-SOL reserves reach the
// graduation target.
type TokenGraduatedData struct {
	TokenAddress string `json:"token_address"`
}

func (d *TokenGraduatedData) EventType() EventType { return TokenGraduated }

// LiquidityMilestoneData carries a single ladder crossing from the
// milestone-alerts subsystem. Severity-specialized EventType variants
// (LiquidityMilestoneHigh, LiquidityMilestoneCrit) reuse this same data
// shape.
type LiquidityMilestoneData struct {
	TokenAddress string                 `json:"token_address"`
	Ladder       domain.MilestoneLadder `json:"ladder"`
	Threshold    float64                `json:"threshold"`
	Severity     domain.AlertSeverity   `json:"severity"`
	eventType    EventType
}

func NewLiquidityMilestoneData(alert domain.MilestoneAlert) *LiquidityMilestoneData {
	et := LiquidityMilestone
	switch alert.Severity {
	case domain.SeverityCritical:
		et = LiquidityMilestoneCrit
	case domain.SeverityHigh:
		et = LiquidityMilestoneHigh
	}
	return &LiquidityMilestoneData{
		TokenAddress: alert.TokenAddress,
		Ladder:       alert.Ladder,
		Threshold:    alert.Threshold,
		Severity:     alert.Severity,
		eventType:    et,
	}
}

func (d *LiquidityMilestoneData) EventType() EventType { return d.eventType }

// HighQualityLiquidityData is emitted when a token's quality score
// reaches the EXCELLENT/GOOD suitability band.
type HighQualityLiquidityData struct {
	TokenAddress string  `json:"token_address"`
	Score        float64 `json:"score"`
}

func (d *HighQualityLiquidityData) EventType() EventType { return HighQualityLiquidity }

// LiquidityMomentumData is emitted by each liquidity growth sweep for
// every token whose momentum classification is HIGH.
type LiquidityMomentumData struct {
	TokenAddress string          `json:"token_address"`
	Momentum     domain.Momentum `json:"momentum"`
}

func (d *LiquidityMomentumData) EventType() EventType { return LiquidityMomentum }

// VolumeAlertData carries a volume-analytics alert; severity-specialized
// EventType variants reuse this data shape.
type VolumeAlertData struct {
	TokenAddress string                  `json:"token_address"`
	Kind         domain.VolumeAlertKind  `json:"kind"`
	Severity     domain.AlertSeverity    `json:"severity"`
	Detail       string                  `json:"detail"`
	eventType    EventType
}

func NewVolumeAlertData(alert domain.VolumeAlert) *VolumeAlertData {
	et := VolumeAlert
	switch alert.Severity {
	case domain.SeverityCritical:
		et = VolumeAlertCritical
	case domain.SeverityHigh:
		et = VolumeAlertHigh
	}
	return &VolumeAlertData{
		TokenAddress: alert.TokenAddress,
		Kind:         alert.Kind,
		Severity:     alert.Severity,
		Detail:       alert.Detail,
		eventType:    et,
	}
}

func (d *VolumeAlertData) EventType() EventType { return d.eventType }

// VolumeSpikeData / VolumeImbalanceData / UnusualVolumePatternData are
// the kind-specific companions to VolumeAlertData, emitted alongside it
// so subscribers can filter on the narrower event name without
// inspecting Kind.
type VolumeSpikeData struct {
	TokenAddress string  `json:"token_address"`
	Multiple     float64 `json:"multiple"`
}

func (d *VolumeSpikeData) EventType() EventType { return VolumeSpike }

type VolumeImbalanceData struct {
	TokenAddress string  `json:"token_address"`
	BuyRatio     float64 `json:"buy_ratio"`
}

func (d *VolumeImbalanceData) EventType() EventType { return VolumeImbalance }

type UnusualVolumePatternData struct {
	TokenAddress string `json:"token_address"`
	Detail       string `json:"detail"`
}

func (d *UnusualVolumePatternData) EventType() EventType { return UnusualVolumePattern }

// BuySignalData carries the buy-signal evaluator's output.
// VolumeTriggeredBuySignalData is the same shape, emitted for every
// delayed re-evaluation (after a critical volume alert or after an AIM
// token's holder refresh) rather than for the evaluation made on
// entering the AIM band directly.
type BuySignalData struct {
	Signal domain.BuySignal `json:"signal"`
}

func (d *BuySignalData) EventType() EventType { return BuySignal }

type VolumeTriggeredBuySignalData struct {
	Signal domain.BuySignal `json:"signal"`
}

func (d *VolumeTriggeredBuySignalData) EventType() EventType { return VolumeTriggeredBuySignal }

// StatsData is the periodic stream-stats display payload.
type StatsData struct {
	TokensTracked   int `json:"tokens_tracked"`
	PriceTicksFlushed int `json:"price_ticks_flushed"`
	TransactionsFlushed int `json:"transactions_flushed"`
	FlushErrors     int `json:"flush_errors"`
}

func (d *StatsData) EventType() EventType { return Stats }

// ConnectedData / DisconnectedData mark gRPC subscription lifecycle
// transitions.
type ConnectedData struct {
	Endpoint string `json:"endpoint"`
}

func (d *ConnectedData) EventType() EventType { return Connected }

type DisconnectedData struct {
	Reason string `json:"reason"`
}

func (d *DisconnectedData) EventType() EventType { return Disconnected }

// ErrorData carries a diagnostic event for an error that was handled at
// a component boundary rather than propagated.
type ErrorData struct {
	Component string    `json:"component"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

func (d *ErrorData) EventType() EventType { return Error }
