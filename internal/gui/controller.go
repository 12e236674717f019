package gui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quantum-sensing/internal/events"
	"quantum-sensing/internal/experiment"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"

	"fyne.io/fyne/v2"
)

const (
	component = "GUIController"

	stopTimeLayout = "2006-01-02 15:04:05"
	fileTimeLayout = "20060102_150405"
)

// Experiment is the part of the experiment controller the window drives.
type Experiment interface {
	SelectProfile(kind models.SensorKind) (models.ExperimentConfig, error)
	StartRun(ctx context.Context, cfg models.ExperimentConfig) error
	StopRun() bool
	SaveSeries(path string) error
	Config() models.ExperimentConfig
	State() models.RunState
}

// Controller coordinates between view components and the experiment controller.
// It also consumes the experiment events and reflects them in the view.
type Controller struct {
	view       *View
	experiment Experiment
	logger     logger.Logger
	ctx        context.Context
	now        func() time.Time
}

func NewController(ctx context.Context, exp Experiment, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NoOp{}
	}
	return &Controller{
		experiment: exp,
		logger:     log,
		ctx:        ctx,
		now:        time.Now,
	}
}

func (c *Controller) SetView(view *View) {
	c.view = view
	c.initializeParameters()
}

func (c *Controller) initializeParameters() {
	cfg := c.experiment.Config()
	panel := c.view.ControlPanel()
	panel.SelectSensor(string(cfg.Sensor))
	panel.SetParameters(cfg.Duration, cfg.Interval)
}

func (c *Controller) ID() string {
	return "gui-controller"
}

// ChangeSensor loads the selected sensor's default parameters.
func (c *Controller) ChangeSensor(sensor string) {
	kind, err := models.ParseSensorKind(sensor)
	if err != nil {
		c.handleError(err)
		return
	}

	cfg, err := c.experiment.SelectProfile(kind)
	if err != nil {
		c.handleError(err)
		return
	}

	c.view.ControlPanel().SetParameters(cfg.Duration, cfg.Interval)
	c.logger.Debug(component, "sensor changed", map[string]interface{}{
		"sensor":   sensor,
		"duration": cfg.Duration,
		"interval": cfg.Interval,
	})
}

func (c *Controller) StartExperiment() {
	sensor, duration, interval := c.view.ControlPanel().Values()
	kind, err := models.ParseSensorKind(sensor)
	if err != nil {
		c.handleError(err)
		return
	}

	cfg := models.ExperimentConfig{Sensor: kind, Duration: duration, Interval: interval}
	err = c.experiment.StartRun(c.ctx, cfg)

	var validationErr *models.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &validationErr):
		// reported through the validation_failed event
	case errors.Is(err, experiment.ErrRunInProgress):
		// a second tap raced the run_started event
		c.logger.Debug(component, "start ignored, run in progress", nil)
	default:
		c.handleError(err)
	}
}

func (c *Controller) StopExperiment() {
	c.experiment.StopRun()
}

// ToggleExperiment starts a run when idle and stops it otherwise.
func (c *Controller) ToggleExperiment() {
	if c.experiment.State() == models.Running {
		c.StopExperiment()
		return
	}
	c.StartExperiment()
}

func (c *Controller) SaveData() {
	name := DefaultFileName(c.experiment.Config().Sensor, c.now())
	c.view.ShowSaveDialog(name, func(path string, err error) {
		if err != nil {
			c.handleError(err)
			return
		}
		if path == "" {
			return
		}

		// Both outcomes arrive as save events.
		go c.experiment.SaveSeries(path)
	})
}

// Handle applies experiment events to the view on the UI thread.
func (c *Controller) Handle(event events.Event) {
	if c.view == nil {
		return
	}

	switch event.Type {
	case events.RunStarted:
		fyne.Do(func() { c.onRunStarted(event) })
	case events.SampleProduced:
		fyne.Do(func() { c.onSample(event) })
	case events.RunComplete:
		fyne.Do(func() { c.onRunComplete(event) })
	case events.RunStopped:
		fyne.Do(func() { c.onRunStopped(event) })
	case events.ValidationFailed:
		fyne.Do(func() {
			c.view.ControlPanel().SetStatus("Invalid parameters")
			c.view.ShowError(event.Err)
		})
	case events.SaveComplete:
		fyne.Do(func() {
			c.view.ControlPanel().SetStatus("Data saved")
			c.view.ShowInformation("Save Data", fmt.Sprintf("Saved %d samples to %s", event.Total, event.Path))
		})
	case events.SaveFailed:
		fyne.Do(func() {
			c.view.ControlPanel().SetStatus("Save failed")
			c.view.ShowError(event.Err)
		})
	}
}

func (c *Controller) onRunStarted(event events.Event) {
	span := 1.0
	if event.Plan != nil {
		span = float64(event.Plan.DurationSeconds)
	}
	c.view.Chart().Reset(span)

	panel := c.view.ControlPanel()
	panel.SetRunning(true)
	panel.SetStatus(fmt.Sprintf("Running %s experiment", event.Sensor))
	c.view.LogView().Append(fmt.Sprintf("Experiment Started - %s, %d samples", event.Sensor, event.Total))
}

func (c *Controller) onSample(event events.Event) {
	c.view.Chart().Append(event.Sample.Elapsed, float64(event.Sample.Reading))
	c.view.LogView().Append(FormatSampleLine(event.Sample))
	if event.Total > 0 {
		c.view.ControlPanel().SetProgress(float64(event.Index+1) / float64(event.Total))
	}
}

func (c *Controller) onRunComplete(event events.Event) {
	panel := c.view.ControlPanel()
	panel.SetRunning(false)
	panel.SetStatus("Experiment complete")

	count := 0
	if event.Summary != nil {
		count = event.Summary.SampleCount
	}
	c.view.LogView().Append(fmt.Sprintf("Experiment Complete - %d samples", count))
	c.view.ShowInformation("Experiment Complete", fmt.Sprintf("%s run finished with %d samples.", event.Sensor, count))
}

func (c *Controller) onRunStopped(event events.Event) {
	panel := c.view.ControlPanel()
	panel.SetRunning(false)
	panel.SetStatus("Experiment stopped")

	at := event.Timestamp
	if event.Summary != nil {
		at = event.Summary.EndedAt
	}
	c.view.LogView().Append(FormatStopLine(at))
	c.view.ShowInformation("Experiment Stopped", "The experiment was stopped before completion.")
}

func (c *Controller) handleError(err error) {
	c.logger.Error(component, err, nil)
	fyne.Do(func() {
		c.view.ShowError(err)
	})
}

// FormatSampleLine renders a sample for the log view.
func FormatSampleLine(s models.Sample) string {
	return fmt.Sprintf("Real-time Data: %.2f, %d", s.Elapsed, s.Reading)
}

func FormatStopLine(at time.Time) string {
	return "Experiment Stopped - " + at.Format(stopTimeLayout)
}

// DefaultFileName proposes a save name such as temperature_20250102_150405.txt.
func DefaultFileName(sensor models.SensorKind, at time.Time) string {
	name := "experiment"
	if sensor != "" {
		name = string(sensor)
	}
	return fmt.Sprintf("%s_%s.txt", strings.ToLower(name), at.Format(fileTimeLayout))
}
