package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantum-sensing/internal/models"
)

type recorder struct {
	id     string
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestBusDeliversInOrderAndDrainsOnShutdown(t *testing.T) {
	bus := NewBus(4, nil)
	rec := &recorder{id: "rec"}
	bus.Subscribe(SampleProduced, rec)

	for i := 0; i < 100; i++ {
		bus.Publish(Event{Type: SampleProduced, Index: i, Sample: models.Sample{Reading: i%100 + 1}})
	}
	bus.Shutdown()

	require.Len(t, rec.events, 100)
	for i, e := range rec.events {
		assert.Equal(t, i, e.Index)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestBusRoutesByType(t *testing.T) {
	bus := NewBus(0, nil)
	samples := &recorder{id: "samples"}
	everything := &recorder{id: "all"}
	bus.Subscribe(SampleProduced, samples)
	bus.Subscribe(All, everything)

	bus.Publish(Event{Type: RunStarted})
	bus.Publish(Event{Type: SampleProduced})
	bus.Publish(Event{Type: RunComplete})
	bus.Shutdown()

	assert.Equal(t, []Type{SampleProduced}, samples.types())
	assert.Equal(t, []Type{RunStarted, SampleProduced, RunComplete}, everything.types())
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(0, nil)
	rec := &recorder{id: "rec"}
	bus.Subscribe(RunStopped, rec)
	bus.Unsubscribe(RunStopped, &recorder{id: "rec"})

	bus.Publish(Event{Type: RunStopped})
	bus.Shutdown()

	assert.Empty(t, rec.types())
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus(0, nil)
	rec := &recorder{id: "rec"}
	bus.Subscribe(All, HandlerFunc("boom", func(Event) { panic("boom") }))
	bus.Subscribe(All, rec)

	bus.Publish(Event{Type: SaveComplete, Path: "a.txt"})
	bus.Publish(Event{Type: SaveComplete, Path: "b.txt"})
	bus.Shutdown()

	assert.Len(t, rec.types(), 2)
}

func TestBusPublishAfterShutdownIsDiscarded(t *testing.T) {
	bus := NewBus(0, nil)
	rec := &recorder{id: "rec"}
	bus.Subscribe(All, rec)
	bus.Shutdown()

	bus.Publish(Event{Type: RunStarted})
	bus.Shutdown()

	assert.Empty(t, rec.types())
}
