package experiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quantum-sensing/internal/events"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"
	"quantum-sensing/internal/storage"
)

const component = "ExperimentController"

// Controller owns the experiment configuration and the sample series, runs
// the tick loop and serves save and stop requests.
//
// Events are published in transition order. Handlers must not call
// StartRun, StopRun or SaveSeries synchronously from Handle.
type Controller struct {
	publisher events.Publisher
	logger    logger.Logger
	clock     Clock
	source    Source

	// emitMu keeps each transition and its event together, so subscribers
	// never see a sample after the stop that ended its run.
	emitMu sync.Mutex

	mu        sync.Mutex
	state     models.RunState
	config    models.ExperimentConfig
	series    *models.SampleSeries
	runID     string
	sensor    models.SensorKind
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithSource(source Source) Option {
	return func(c *Controller) { c.source = source }
}

func NewController(publisher events.Publisher, log logger.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logger.NoOp{}
	}
	defaultProfile, _ := models.LookupProfile(models.Temperature)

	c := &Controller{
		publisher: publisher,
		logger:    log,
		clock:     realClock{},
		source:    newDefaultSource(),
		state:     models.Idle,
		config:    models.ConfigForProfile(defaultProfile),
		series:    models.NewSampleSeries(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectProfile replaces the current configuration with the defaults of kind.
func (c *Controller) SelectProfile(kind models.SensorKind) (models.ExperimentConfig, error) {
	profile, ok := models.LookupProfile(kind)
	if !ok {
		return models.ExperimentConfig{}, fmt.Errorf("%w %q", models.ErrUnknownSensor, kind)
	}

	c.mu.Lock()
	c.config.ApplyProfile(profile)
	cfg := c.config
	c.mu.Unlock()

	c.logger.Debug(component, "profile selected", map[string]interface{}{
		"sensor":      string(kind),
		"duration_s":  profile.DurationSeconds,
		"interval_ms": profile.IntervalMillis,
	})
	return cfg, nil
}

// StartRun validates cfg and starts sampling in the background. An invalid
// config changes nothing and is returned as a *models.ValidationError.
func (c *Controller) StartRun(ctx context.Context, cfg models.ExperimentConfig) error {
	plan, err := cfg.Validate()
	if err != nil {
		c.logger.Warning(component, "run rejected", map[string]interface{}{
			"duration": cfg.Duration,
			"interval": cfg.Interval,
			"reason":   err.Error(),
		})
		c.publish(events.Event{Type: events.ValidationFailed, Sensor: cfg.Sensor, Err: err})
		return err
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.state == models.Running {
		c.mu.Unlock()
		return ErrRunInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()
	done := make(chan struct{})

	c.state = models.Running
	c.config = cfg
	c.series.Reset()
	c.runID = runID
	c.sensor = plan.Sensor
	c.startedAt = c.clock.Now()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	total := plan.Ticks()
	c.logger.Info(component, "run started", map[string]interface{}{
		"run_id":      runID,
		"sensor":      string(plan.Sensor),
		"duration_s":  plan.DurationSeconds,
		"interval_ms": plan.IntervalMillis,
		"ticks":       total,
	})
	c.publish(events.Event{Type: events.RunStarted, RunID: runID, Sensor: plan.Sensor, Total: total, Plan: &plan})

	go c.run(runCtx, runID, plan, done)
	return nil
}

func (c *Controller) run(ctx context.Context, runID string, plan models.RunPlan, done chan struct{}) {
	defer close(done)

	ticker := c.clock.NewTicker(plan.Interval())
	defer ticker.Stop()

	total := plan.Ticks()
	for i := 0; i < total; i++ {
		if !c.produce(runID, plan, i, total) {
			return
		}
		select {
		case <-ctx.Done():
			c.stop(runID)
			return
		case <-ticker.C():
		}
	}
	c.complete(runID)
}

// produce appends sample i unless the run has already ended.
func (c *Controller) produce(runID string, plan models.RunPlan, i, total int) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.state != models.Running || c.runID != runID {
		c.mu.Unlock()
		return false
	}
	sample := models.Sample{
		Elapsed: plan.ElapsedAt(i),
		Reading: c.source.IntN(models.MaxReading-models.MinReading+1) + models.MinReading,
	}
	c.series.Append(sample)
	sensor := c.sensor
	c.mu.Unlock()

	c.logger.Debug(component, "sample produced", map[string]interface{}{
		"run_id":  runID,
		"index":   i,
		"elapsed": sample.Elapsed,
		"reading": sample.Reading,
	})
	c.publish(events.Event{
		Type:   events.SampleProduced,
		RunID:  runID,
		Sensor: sensor,
		Sample: sample,
		Index:  i,
		Total:  total,
	})
	return true
}

func (c *Controller) complete(runID string) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.state != models.Running || c.runID != runID {
		c.mu.Unlock()
		return
	}
	summary := c.finishLocked(models.OutcomeCompleted)
	c.mu.Unlock()

	c.logger.Info(component, "run complete", summaryFields(summary))
	c.publish(events.Event{Type: events.RunComplete, RunID: runID, Sensor: summary.Sensor, Summary: summary})
}

// StopRun ends the active run. It reports whether a run was stopped;
// calling it while idle does nothing.
func (c *Controller) StopRun() bool {
	return c.stop("")
}

// stop ends the run identified by runID, or whichever run is active when
// runID is empty.
func (c *Controller) stop(runID string) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.state != models.Running || (runID != "" && c.runID != runID) {
		c.mu.Unlock()
		return false
	}
	summary := c.finishLocked(models.OutcomeStopped)
	c.mu.Unlock()

	c.logger.Info(component, "run stopped", summaryFields(summary))
	c.publish(events.Event{Type: events.RunStopped, RunID: summary.RunID, Sensor: summary.Sensor, Summary: summary})
	return true
}

func (c *Controller) finishLocked(outcome models.RunOutcome) *models.RunSummary {
	c.state = models.Idle
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return &models.RunSummary{
		RunID:       c.runID,
		Sensor:      c.sensor,
		SampleCount: c.series.Len(),
		StartedAt:   c.startedAt,
		EndedAt:     c.clock.Now(),
		Outcome:     outcome,
	}
}

// SaveSeries writes the current series to path, replacing any existing
// file. Failures are returned as *IOError and leave the series intact.
func (c *Controller) SaveSeries(path string) error {
	samples := c.series.Snapshot()

	if err := storage.SaveFile(path, samples); err != nil {
		ioErr := &IOError{Path: path, Err: err}
		c.logger.Error(component, ioErr, map[string]interface{}{
			"path":    path,
			"samples": len(samples),
		})
		c.publish(events.Event{Type: events.SaveFailed, RunID: c.RunID(), Path: path, Err: ioErr})
		return ioErr
	}

	c.logger.Info(component, "series saved", map[string]interface{}{
		"path":    path,
		"samples": len(samples),
	})
	c.publish(events.Event{Type: events.SaveComplete, RunID: c.RunID(), Path: path, Total: len(samples)})
	return nil
}

// Wait blocks until the most recently started run loop has exited.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (c *Controller) Shutdown() {
	c.StopRun()
	c.Wait()
	c.logger.Info(component, "shutdown completed", nil)
}

func (c *Controller) State() models.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Config() models.ExperimentConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Series returns a copy of the samples recorded so far.
func (c *Controller) Series() []models.Sample {
	return c.series.Snapshot()
}

func (c *Controller) publish(event events.Event) {
	if c.publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.clock.Now()
	}
	c.publisher.Publish(event)
}

func summaryFields(s *models.RunSummary) map[string]interface{} {
	return map[string]interface{}{
		"run_id":  s.RunID,
		"sensor":  string(s.Sensor),
		"samples": s.SampleCount,
		"outcome": string(s.Outcome),
		"elapsed": s.EndedAt.Sub(s.StartedAt).String(),
	}
}
