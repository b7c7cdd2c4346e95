package events

import (
	"time"

	"github.com/rs/zerolog"
)

// Manager wraps a Bus with structured logging of every emission,
// mirroring how emission is logged for observability elsewhere in this
// codebase's ambient stack.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager builds a Manager around bus.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// EmitTyped logs and publishes a typed event payload.
func (m *Manager) EmitTyped(module string, data EventData) {
	m.log.Info().
		Str("event_type", string(data.EventType())).
		Str("module", module).
		Msg("event emitted")
	m.bus.Emit(module, data)
}

// EmitError logs and publishes an ErrorData event for a component
// boundary that handled an error without propagating it.
func (m *Manager) EmitError(component string, err error) {
	m.log.Warn().
		Str("component", component).
		Err(err).
		Msg("handled error")
	m.bus.Emit(component, &ErrorData{
		Component: component,
		Message:   err.Error(),
		At:        time.Now(),
	})
}

// Subscribe delegates to the underlying Bus, letting callers hold only a
// Manager reference.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.bus.Subscribe(eventType, handler)
}
