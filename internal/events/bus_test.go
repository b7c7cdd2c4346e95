package events

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var mu sync.Mutex
	var received []string

	bus.Subscribe(NewToken, func(e *Event) {
		mu.Lock()
		defer mu.Unlock()
		data := e.Data.(*NewTokenData)
		received = append(received, data.TokenAddress)
	})

	bus.Emit("stream", &NewTokenData{TokenAddress: "mint1"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"mint1"}, received)
}

func TestBus_UnsubscribedEventTypeIsIgnored(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	called := false
	bus.Subscribe(NewToken, func(e *Event) { called = true })

	bus.Emit("stream", &CategoryChangedData{TokenAddress: "mint1"})

	assert.False(t, called)
}

func TestBus_HandlerPanicDoesNotStopOtherHandlers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	secondCalled := false

	bus.Subscribe(NewToken, func(e *Event) { panic("boom") })
	bus.Subscribe(NewToken, func(e *Event) { secondCalled = true })

	assert.NotPanics(t, func() {
		bus.Emit("stream", &NewTokenData{TokenAddress: "mint1"})
	})
	assert.True(t, secondCalled)
}
