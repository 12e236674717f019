package models

import (
	"errors"
	"fmt"
	"strings"
)

// SensorKind identifies the simulated sensor attached to the apparatus
type SensorKind string

const (
	Temperature SensorKind = "Temperature"
	Pressure    SensorKind = "Pressure"
	Humidity    SensorKind = "Humidity"
)

var ErrUnknownSensor = errors.New("unknown sensor")

// SensorProfile is the default run configuration for a sensor kind
type SensorProfile struct {
	Kind            SensorKind `json:"kind"`
	DurationSeconds int        `json:"duration_s"`
	IntervalMillis  int        `json:"interval_ms"`
}

var profiles = []SensorProfile{
	{Kind: Temperature, DurationSeconds: 10, IntervalMillis: 500},
	{Kind: Pressure, DurationSeconds: 15, IntervalMillis: 1000},
	{Kind: Humidity, DurationSeconds: 8, IntervalMillis: 300},
}

// Profiles returns the profile table in display order.
func Profiles() []SensorProfile {
	out := make([]SensorProfile, len(profiles))
	copy(out, profiles)
	return out
}

// SensorKinds returns the kind names in display order, as shown in selectors.
func SensorKinds() []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, string(p.Kind))
	}
	return out
}

func LookupProfile(kind SensorKind) (SensorProfile, bool) {
	for _, p := range profiles {
		if p.Kind == kind {
			return p, true
		}
	}
	return SensorProfile{}, false
}

// ParseSensorKind accepts kind names case-insensitively.
func ParseSensorKind(s string) (SensorKind, error) {
	t := strings.TrimSpace(s)
	for _, p := range profiles {
		if strings.EqualFold(string(p.Kind), t) {
			return p.Kind, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownSensor, s)
}
