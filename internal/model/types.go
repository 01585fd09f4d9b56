// Package model defines shared data structures.
package model

import "time"

// Config defines simulation run settings.
type Config struct {
	DecayRate          float64
	ThresholdDecayRate float64
	MinThreshold       float64
	SpikeMagnitude     float64
	RefractoryPeriod   int
	TickMs             int
	ChartHeight        int
}

// Sample is one recorded point of the membrane time series.
type Sample struct {
	Time      int
	Potential float64
	Threshold float64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionStats captures a completed simulation session.
type SessionStats struct {
	StartedAt          time.Time
	EndedAt            time.Time
	Ticks              int
	SpikeCount         int
	DecayRate          float64
	ThresholdDecayRate float64
	MinThreshold       float64
	SpikeMagnitude     float64
	DurationMs         int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Ticks      int
	SpikeCount int
	DurationMs int64
}
