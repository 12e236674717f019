package models

import (
	"sync"
	"time"
)

const (
	MinReading = 1
	MaxReading = 100
)

// Sample is one reading taken during a run
type Sample struct {
	Elapsed float64 `json:"elapsed_s"`
	Reading int     `json:"reading"`
}

// SampleSeries is the ordered list of samples for the current run.
type SampleSeries struct {
	mu      sync.RWMutex
	samples []Sample
}

func NewSampleSeries() *SampleSeries {
	return &SampleSeries{samples: make([]Sample, 0)}
}

func (s *SampleSeries) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make([]Sample, 0)
}

func (s *SampleSeries) Append(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

func (s *SampleSeries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Snapshot returns a copy safe to hand to readers.
func (s *SampleSeries) Snapshot() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

type RunState int

const (
	Idle RunState = iota
	Running
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

type RunOutcome string

const (
	OutcomeCompleted RunOutcome = "completed"
	OutcomeStopped   RunOutcome = "stopped"
)

// RunSummary describes a finished run
type RunSummary struct {
	RunID       string     `json:"run_id"`
	Sensor      SensorKind `json:"sensor"`
	SampleCount int        `json:"samples"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     time.Time  `json:"ended_at"`
	Outcome     RunOutcome `json:"outcome"`
}
