package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives one Event. Handlers run synchronously on the
// publishing goroutine's call to Publish/Emit; a handler that
// needs to do slow work should hand off to its own goroutine or a
// worker queue rather than block the publisher.
type Handler func(event *Event)

// Bus is a typed publish/subscribe surface. Analytics subsystems and
// other consumers subscribe to the event kinds they care about; the
// stream manager and other producers publish immutable Event values.
// This is the one-way edge described for the relationship between the
// stream manager and analytics: producers never call consumers
// directly, they only publish.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus constructs an empty Bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "events.Bus").Logger(),
	}
}

// Subscribe registers handler to run whenever an event of eventType is
// published. Subscriptions are not removable; the bus lives for the
// process lifetime.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers event to every handler subscribed to its type. A
// handler panic is recovered and logged so that one faulty subscriber
// cannot take down the publisher.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(h, event)
	}
}

func (b *Bus) dispatch(h Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event_type", string(event.Type)).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	h(event)
}

// Emit is a convenience wrapper that builds and publishes an Event from
// a module name and typed data in one call.
func (b *Bus) Emit(module string, data EventData) {
	b.Publish(&Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	})
}
