package events

import (
	"time"

	"quantum-sensing/internal/models"
)

type Type string

const (
	RunStarted       Type = "run_started"
	SampleProduced   Type = "sample_produced"
	RunComplete      Type = "run_complete"
	RunStopped       Type = "run_stopped"
	ValidationFailed Type = "validation_failed"
	SaveComplete     Type = "save_complete"
	SaveFailed       Type = "save_failed"

	// All subscribes a handler to every event type.
	All Type = "*"
)

// Event is a notification emitted by the experiment controller.
// Only the fields relevant to Type are set.
type Event struct {
	Type      Type
	Timestamp time.Time
	RunID     string
	Sensor    models.SensorKind
	Sample    models.Sample
	Index     int
	Total     int
	Plan      *models.RunPlan
	Summary   *models.RunSummary
	Path      string
	Err       error
}

// Publisher accepts events for delivery
type Publisher interface {
	Publish(event Event)
}

// Handler consumes delivered events
type Handler interface {
	Handle(event Event)
	ID() string
}

type handlerFunc struct {
	id string
	fn func(Event)
}

func (h handlerFunc) Handle(event Event) { h.fn(event) }
func (h handlerFunc) ID() string         { return h.id }

// HandlerFunc adapts a function into a Handler with the given id.
func HandlerFunc(id string, fn func(Event)) Handler {
	return handlerFunc{id: id, fn: fn}
}
