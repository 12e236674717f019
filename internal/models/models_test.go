package models

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDefaults(t *testing.T) {
	tests := []struct {
		kind     SensorKind
		duration int
		interval int
	}{
		{Temperature, 10, 500},
		{Pressure, 15, 1000},
		{Humidity, 8, 300},
	}
	for _, tt := range tests {
		p, ok := LookupProfile(tt.kind)
		require.True(t, ok, tt.kind)
		assert.Equal(t, tt.duration, p.DurationSeconds, tt.kind)
		assert.Equal(t, tt.interval, p.IntervalMillis, tt.kind)
	}

	_, ok := LookupProfile("Radiation")
	assert.False(t, ok)
	assert.Equal(t, []string{"Temperature", "Pressure", "Humidity"}, SensorKinds())
}

func TestApplyProfileOverwritesBothFields(t *testing.T) {
	cfg := ExperimentConfig{Sensor: Temperature, Duration: "abc", Interval: "7"}
	p, _ := LookupProfile(Humidity)

	cfg.ApplyProfile(p)

	assert.Equal(t, ExperimentConfig{Sensor: Humidity, Duration: "8", Interval: "300"}, cfg)
}

func TestParseSensorKind(t *testing.T) {
	k, err := ParseSensorKind(" pressure ")
	require.NoError(t, err)
	assert.Equal(t, Pressure, k)

	_, err = ParseSensorKind("sonar")
	assert.True(t, errors.Is(err, ErrUnknownSensor))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ExperimentConfig
		field    string
		ticks    int
		interval int
	}{
		{"profile", NewExperimentConfig(Temperature, 10, 500), "", 20, 500},
		{"whitespace", ExperimentConfig{Duration: " 3 ", Interval: "1000\n"}, "", 3, 1000},
		{"floor", ExperimentConfig{Duration: "1", Interval: "300"}, "", 3, 300},
		{"interval longer than run", ExperimentConfig{Duration: "1", Interval: "5000"}, "", 0, 5000},
		{"letters", ExperimentConfig{Duration: "abc", Interval: "500"}, FieldDuration, 0, 0},
		{"float", ExperimentConfig{Duration: "1.5", Interval: "500"}, FieldDuration, 0, 0},
		{"zero duration", ExperimentConfig{Duration: "0", Interval: "500"}, FieldDuration, 0, 0},
		{"negative interval", ExperimentConfig{Duration: "5", Interval: "-1"}, FieldInterval, 0, 0},
		{"empty interval", ExperimentConfig{Duration: "5", Interval: ""}, FieldInterval, 0, 0},
		{"duration overflows ticks", ExperimentConfig{Duration: strconv.Itoa(MaxDurationSeconds + 1), Interval: "1"}, FieldDuration, 0, 0},
		{"duration at limit", ExperimentConfig{Duration: strconv.Itoa(MaxDurationSeconds), Interval: "1000"}, "", MaxDurationSeconds, 1000},
		{"interval overflows duration", ExperimentConfig{Duration: "5", Interval: strconv.Itoa(MaxIntervalMillis + 1)}, FieldInterval, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := tt.cfg.Validate()
			if tt.field != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ticks, plan.Ticks())
			assert.Equal(t, tt.interval, plan.IntervalMillis)
		})
	}
}

func TestRunPlanElapsed(t *testing.T) {
	plan := RunPlan{DurationSeconds: 8, IntervalMillis: 300}
	assert.Equal(t, 0.0, plan.ElapsedAt(0))
	assert.InDelta(t, 0.3, plan.ElapsedAt(1), 1e-9)
	assert.InDelta(t, 7.8, plan.ElapsedAt(26), 1e-9)
	assert.Equal(t, 26, plan.Ticks())
}

func TestSampleSeriesSnapshotIsACopy(t *testing.T) {
	s := NewSampleSeries()
	s.Append(Sample{Elapsed: 0, Reading: 4})
	snap := s.Snapshot()
	snap[0].Reading = 99

	assert.Equal(t, 4, s.Snapshot()[0].Reading)
	s.Reset()
	assert.Zero(t, s.Len())
}
