package app

import (
	"context"
	"fmt"

	"quantum-sensing/internal/config"
	"quantum-sensing/internal/events"
	"quantum-sensing/internal/experiment"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/shutdown"
	"quantum-sensing/internal/sink/mqtt"
)

// Lifecycle owns the non-visual services shared by the window and the
// headless runner, and shuts them down in dependency order.
type Lifecycle struct {
	Bus        *events.Bus
	Experiment *experiment.Controller
	Sink       *mqtt.Sink
	shutdown   *shutdown.Manager
	logger     logger.Logger
}

func NewLifecycle(cfg config.Config, log logger.Logger, opts ...experiment.Option) (*Lifecycle, error) {
	if log == nil {
		log = logger.NoOp{}
	}

	bus := events.NewBus(events.DefaultBufferSize, log)
	manager := shutdown.NewManager(log)
	if cfg.ShutdownTimeout > 0 {
		manager.SetTimeout(cfg.ShutdownTimeout)
	}

	l := &Lifecycle{
		Bus:      bus,
		shutdown: manager,
		logger:   log,
	}

	// Registration order is the reverse of shutdown order: the sink must see
	// the final run events that the bus drains.
	if cfg.MQTT.Enabled() {
		sink, err := mqtt.Connect(cfg.MQTT, log)
		if err != nil {
			bus.Shutdown()
			return nil, fmt.Errorf("start mqtt sink: %w", err)
		}
		bus.Subscribe(events.All, sink)
		manager.Register("mqtt-sink", sink)
		l.Sink = sink
	}
	manager.Register("event-bus", bus)

	l.Experiment = experiment.NewController(bus, log, opts...)
	if _, err := l.Experiment.SelectProfile(cfg.DefaultSensor); err != nil {
		l.Shutdown()
		return nil, err
	}
	manager.Register("experiment", l.Experiment)

	log.Debug("Lifecycle", "services started", map[string]interface{}{
		"mqtt":   cfg.MQTT.Enabled(),
		"sensor": string(cfg.DefaultSensor),
	})
	return l, nil
}

// Context is cancelled as soon as shutdown begins; runs started with it
// stop before the services are torn down.
func (l *Lifecycle) Context() context.Context {
	return l.shutdown.Context()
}

// ListenForSignals shuts everything down on SIGINT or SIGTERM.
func (l *Lifecycle) ListenForSignals() {
	l.shutdown.Listen()
}

func (l *Lifecycle) Done() <-chan struct{} {
	return l.shutdown.Done()
}

// Shutdown is idempotent.
func (l *Lifecycle) Shutdown() {
	l.shutdown.Shutdown()
}
