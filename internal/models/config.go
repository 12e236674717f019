package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	FieldDuration = "duration"
	FieldInterval = "interval"
)

// Upper bounds keep Ticks and Interval within int and time.Duration.
const (
	MaxDurationSeconds = math.MaxInt / 1000
	MaxIntervalMillis  = int(min(math.MaxInt, math.MaxInt64/int64(time.Millisecond)))
)

// ExperimentConfig holds the run parameters as the user typed them.
// Values are only parsed when a run starts.
type ExperimentConfig struct {
	Sensor   SensorKind
	Duration string // seconds
	Interval string // milliseconds
}

func NewExperimentConfig(sensor SensorKind, durationSeconds, intervalMillis int) ExperimentConfig {
	return ExperimentConfig{
		Sensor:   sensor,
		Duration: strconv.Itoa(durationSeconds),
		Interval: strconv.Itoa(intervalMillis),
	}
}

// ConfigForProfile returns the profile defaults as an editable config.
func ConfigForProfile(p SensorProfile) ExperimentConfig {
	return NewExperimentConfig(p.Kind, p.DurationSeconds, p.IntervalMillis)
}

// ApplyProfile overwrites both fields and the sensor with the profile defaults.
func (c *ExperimentConfig) ApplyProfile(p SensorProfile) {
	*c = ConfigForProfile(p)
}

// Validate parses both fields. Both must be integers greater than zero.
func (c ExperimentConfig) Validate() (RunPlan, error) {
	duration, err := parsePositive(FieldDuration, c.Duration, MaxDurationSeconds)
	if err != nil {
		return RunPlan{}, err
	}
	interval, err := parsePositive(FieldInterval, c.Interval, MaxIntervalMillis)
	if err != nil {
		return RunPlan{}, err
	}
	return RunPlan{Sensor: c.Sensor, DurationSeconds: duration, IntervalMillis: interval}, nil
}

func parsePositive(field, text string, limit int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &ValidationError{Field: field, Value: text, Reason: "must be a whole number"}
	}
	if v <= 0 {
		return 0, &ValidationError{Field: field, Value: text, Reason: "must be greater than zero"}
	}
	if v > limit {
		return 0, &ValidationError{Field: field, Value: text, Reason: "is too large"}
	}
	return v, nil
}

// ValidationError reports an experiment parameter that cannot be used.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// RunPlan is a validated ExperimentConfig.
type RunPlan struct {
	Sensor          SensorKind
	DurationSeconds int
	IntervalMillis  int
}

// Ticks is the number of samples a full run produces.
func (p RunPlan) Ticks() int {
	return p.DurationSeconds * 1000 / p.IntervalMillis
}

func (p RunPlan) Interval() time.Duration {
	return time.Duration(p.IntervalMillis) * time.Millisecond
}

// ElapsedAt returns the elapsed time in seconds stamped on tick i.
func (p RunPlan) ElapsedAt(i int) float64 {
	return float64(i) * float64(p.IntervalMillis) / 1000
}
