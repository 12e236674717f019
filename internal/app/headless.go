package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"quantum-sensing/internal/config"
	"quantum-sensing/internal/events"
	"quantum-sensing/internal/experiment"
	"quantum-sensing/internal/gui"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"
)

// RunOptions describes one headless experiment. Empty Duration or Interval
// falls back to the sensor profile defaults.
type RunOptions struct {
	Sensor   models.SensorKind
	Duration string
	Interval string
	// Out is the series destination; empty skips saving. Relative paths are
	// resolved against the configured output directory.
	Out string
}

// Headless runs experiments without a window, echoing every event to out.
type Headless struct {
	lifecycle *Lifecycle
	cfg       config.Config
	out       io.Writer
	logger    logger.Logger
	terminal  chan events.Event
}

func NewHeadless(cfg config.Config, log logger.Logger, out io.Writer, opts ...experiment.Option) (*Headless, error) {
	if out == nil {
		out = os.Stdout
	}
	lifecycle, err := NewLifecycle(cfg, log, opts...)
	if err != nil {
		return nil, err
	}

	h := &Headless{
		lifecycle: lifecycle,
		cfg:       cfg,
		out:       out,
		logger:    log,
		terminal:  make(chan events.Event, 1),
	}
	if h.logger == nil {
		h.logger = logger.NoOp{}
	}
	lifecycle.Bus.Subscribe(events.All, events.HandlerFunc("headless-printer", h.print))
	return h, nil
}

func (h *Headless) print(event events.Event) {
	switch event.Type {
	case events.RunStarted:
		fmt.Fprintf(h.out, "Experiment Started - %s, %d samples\n", event.Sensor, event.Total)
	case events.SampleProduced:
		fmt.Fprintln(h.out, gui.FormatSampleLine(event.Sample))
	case events.RunComplete:
		fmt.Fprintf(h.out, "Experiment Complete - %d samples\n", event.Summary.SampleCount)
		h.signalEnd(event)
	case events.RunStopped:
		fmt.Fprintln(h.out, gui.FormatStopLine(event.Summary.EndedAt))
		h.signalEnd(event)
	case events.ValidationFailed:
		fmt.Fprintf(h.out, "Invalid parameters: %v\n", event.Err)
	}
}

func (h *Headless) signalEnd(event events.Event) {
	select {
	case h.terminal <- event:
	default:
	}
}

// Run executes one experiment and blocks until it completes, is stopped by
// a signal, or ctx is cancelled. The series is saved to opts.Out in every case.
func (h *Headless) Run(ctx context.Context, opts RunOptions) (*models.RunSummary, error) {
	defer h.lifecycle.Shutdown()
	h.lifecycle.ListenForSignals()

	cfg, err := h.lifecycle.Experiment.SelectProfile(opts.Sensor)
	if err != nil {
		return nil, err
	}
	if opts.Duration != "" {
		cfg.Duration = opts.Duration
	}
	if opts.Interval != "" {
		cfg.Interval = opts.Interval
	}

	if err := h.lifecycle.Experiment.StartRun(ctx, cfg); err != nil {
		return nil, err
	}

	var end events.Event
	select {
	case end = <-h.terminal:
	case <-h.lifecycle.Done():
		// Shutdown blocks until the signal-triggered sequence has stopped
		// the run and drained the bus.
		h.lifecycle.Shutdown()
		select {
		case end = <-h.terminal:
		default:
			return nil, fmt.Errorf("run interrupted before its final event")
		}
	}
	h.lifecycle.Experiment.Wait()

	if opts.Out != "" {
		path := opts.Out
		if !filepath.IsAbs(path) && h.cfg.OutputDir != "" {
			path = filepath.Join(h.cfg.OutputDir, path)
		}
		// Printed here rather than from the save events: after a signal the
		// bus is already closed.
		if err := h.lifecycle.Experiment.SaveSeries(path); err != nil {
			fmt.Fprintf(h.out, "Save failed: %v\n", err)
			return end.Summary, err
		}
		fmt.Fprintf(h.out, "Saved %d samples to %s\n", len(h.lifecycle.Experiment.Series()), path)
	}

	h.logger.Info("Headless", "run finished", map[string]interface{}{
		"run_id":  end.RunID,
		"outcome": string(end.Summary.Outcome),
		"samples": end.Summary.SampleCount,
	})
	return end.Summary, nil
}
