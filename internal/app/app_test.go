package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quantum-sensing/internal/config"
	"quantum-sensing/internal/experiment"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"
	"quantum-sensing/internal/storage"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantTicker struct{ ch chan time.Time }

func (t instantTicker) C() <-chan time.Time { return t.ch }
func (t instantTicker) Stop()               {}

type instantClock struct{}

func (instantClock) Now() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func (instantClock) NewTicker(time.Duration) experiment.Ticker {
	ch := make(chan time.Time)
	close(ch)
	return instantTicker{ch: ch}
}

// manualClock ticks only when the test sends on ticks.
type manualClock struct{ ticks chan time.Time }

func (m manualClock) Now() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func (m manualClock) NewTicker(time.Duration) experiment.Ticker {
	return instantTicker{ch: m.ticks}
}

type fixedSource int

func (f fixedSource) IntN(int) int { return int(f) }

func TestHeadlessRunSavesSeries(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()

	var out bytes.Buffer
	h, err := NewHeadless(cfg, logger.NoOp{}, &out, experiment.WithClock(instantClock{}), experiment.WithSource(fixedSource(41)))
	require.NoError(t, err)

	summary, err := h.Run(context.Background(), RunOptions{
		Sensor:   models.Humidity,
		Duration: "1",
		Interval: "250",
		Out:      "humidity.txt",
	})
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, models.OutcomeCompleted, summary.Outcome)
	assert.Equal(t, 4, summary.SampleCount)

	samples, err := storage.LoadFile(filepath.Join(cfg.OutputDir, "humidity.txt"))
	require.NoError(t, err)
	assert.Equal(t, []models.Sample{
		{Elapsed: 0, Reading: 42},
		{Elapsed: 0.25, Reading: 42},
		{Elapsed: 0.5, Reading: 42},
		{Elapsed: 0.75, Reading: 42},
	}, samples)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Experiment Started - Humidity, 4 samples", lines[0])
	assert.Contains(t, lines, "Real-time Data: 0.75, 42")
	assert.Contains(t, lines, "Experiment Complete - 4 samples")
}

func TestHeadlessShutdownSavesPartialSeries(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	clock := manualClock{ticks: make(chan time.Time)}

	var out bytes.Buffer
	h, err := NewHeadless(cfg, logger.NoOp{}, &out, experiment.WithClock(clock), experiment.WithSource(fixedSource(9)))
	require.NoError(t, err)

	type result struct {
		summary *models.RunSummary
		err     error
	}
	finished := make(chan result, 1)
	go func() {
		summary, err := h.Run(context.Background(), RunOptions{Sensor: models.Pressure, Out: "partial.txt"})
		finished <- result{summary, err}
	}()

	series := func() int { return len(h.lifecycle.Experiment.Series()) }
	require.Eventually(t, func() bool { return series() == 1 }, time.Second, time.Millisecond)
	clock.ticks <- time.Now()
	require.Eventually(t, func() bool { return series() == 2 }, time.Second, time.Millisecond)

	// what a SIGTERM does
	h.lifecycle.Shutdown()

	var res result
	select {
	case res = <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after shutdown")
	}
	require.NoError(t, res.err)
	require.NotNil(t, res.summary)
	assert.Equal(t, models.OutcomeStopped, res.summary.Outcome)
	assert.Equal(t, 2, res.summary.SampleCount)

	path := filepath.Join(cfg.OutputDir, "partial.txt")
	samples, err := storage.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Sample{{Elapsed: 0, Reading: 10}, {Elapsed: 1, Reading: 10}}, samples)
	assert.Contains(t, out.String(), "Experiment Stopped - 2024-05-01 12:00:00")
	assert.Contains(t, out.String(), "Saved 2 samples to "+path)
}

func TestHeadlessProfileDefaults(t *testing.T) {
	var out bytes.Buffer
	h, err := NewHeadless(config.Default(), nil, &out, experiment.WithClock(instantClock{}), experiment.WithSource(fixedSource(0)))
	require.NoError(t, err)

	summary, err := h.Run(context.Background(), RunOptions{Sensor: models.Pressure})
	require.NoError(t, err)
	assert.Equal(t, 15, summary.SampleCount)
}

func TestHeadlessRejectsInvalidParameters(t *testing.T) {
	var out bytes.Buffer
	h, err := NewHeadless(config.Default(), logger.NoOp{}, &out, experiment.WithClock(instantClock{}))
	require.NoError(t, err)

	_, err = h.Run(context.Background(), RunOptions{Sensor: models.Temperature, Duration: "abc"})

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, models.FieldDuration, validationErr.Field)
	assert.Contains(t, out.String(), "Invalid parameters")
}

func TestApplicationMenus(t *testing.T) {
	a, err := newApplication(test.NewTempApp(t), config.Default(), logger.NoOp{})
	require.NoError(t, err)
	defer a.lifecycle.Shutdown()

	menu := a.window.MainMenu()
	require.NotNil(t, menu)
	require.Len(t, menu.Items, 3)
	assert.Equal(t, "File", menu.Items[0].Label)
	assert.Equal(t, "Experiment", menu.Items[1].Label)
	assert.Equal(t, "Help", menu.Items[2].Label)

	sensor, duration, interval := a.view.ControlPanel().Values()
	assert.Equal(t, "Temperature", sensor)
	assert.Equal(t, "10", duration)
	assert.Equal(t, "500", interval)

	a.selectSensor("Pressure")
	_, duration, interval = a.view.ControlPanel().Values()
	assert.Equal(t, "15", duration)
	assert.Equal(t, "1000", interval)
}

func TestLifecycleShutdownCancelsContext(t *testing.T) {
	cfg := config.Default()
	cfg.ShutdownTimeout = time.Second

	l, err := NewLifecycle(cfg, logger.NoOp{}, experiment.WithClock(manualClock{ticks: make(chan time.Time)}))
	require.NoError(t, err)

	require.NoError(t, l.Experiment.StartRun(l.Context(), models.ConfigForProfile(models.Profiles()[0])))
	assert.Equal(t, models.Running, l.Experiment.State())

	l.Shutdown()
	assert.Error(t, l.Context().Err())
	assert.Equal(t, models.Idle, l.Experiment.State())

	select {
	case <-l.Done():
	default:
		t.Fatal("done not closed after shutdown")
	}
}
