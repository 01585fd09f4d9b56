package engine

import (
	"math"
	"reflect"
	"testing"

	"github.com/spikelab/spikelab/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

// snapshot captures the full engine state for equality checks.
type snapshot struct {
	Time       int
	Potential  float64
	Threshold  float64
	LastSpike  int
	SpikeCount int
	SpikeTimes []int
	Samples    []model.Sample
}

func snap(n *Neuron) snapshot {
	return snapshot{
		Time:       n.Time(),
		Potential:  n.Potential(),
		Threshold:  n.Threshold(),
		LastSpike:  n.lastSpike,
		SpikeCount: n.SpikeCount(),
		SpikeTimes: n.SpikeTimes(),
		Samples:    n.Samples(),
	}
}

func TestStimulateAccumulatesThenSpikes(t *testing.T) {
	n := New(DefaultParams())

	n.Stimulate(0.5)
	if n.Potential() != 0.5 {
		t.Fatalf("expected potential 0.5, got %v", n.Potential())
	}
	if n.SpikeCount() != 0 {
		t.Fatalf("expected no spike yet, got %d", n.SpikeCount())
	}

	n.Stimulate(0.5)
	if n.SpikeCount() != 1 {
		t.Fatalf("expected spike, got count %d", n.SpikeCount())
	}
	if n.Potential() != 0 {
		t.Fatalf("expected full discharge, got potential %v", n.Potential())
	}
	if !approx(n.Threshold(), 1.1) {
		t.Fatalf("expected threshold 1.1 after adaptation, got %v", n.Threshold())
	}
	last, ok := n.LastSpikeTime()
	if !ok || last != 0 {
		t.Fatalf("expected last spike at tick 0, got %d (ok=%v)", last, ok)
	}
	if got := n.SpikeTimes(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("unexpected spike log: %v", got)
	}
}

func TestThresholdRelaxationResumesAfterRefractory(t *testing.T) {
	n := New(DefaultParams())
	n.Stimulate(0.5)
	n.Stimulate(0.5) // spike at tick 0

	for i := 0; i < 4; i++ {
		n.Tick()
		if !approx(n.Threshold(), 1.1) {
			t.Fatalf("tick %d: threshold changed during refractory window: %v", n.Time(), n.Threshold())
		}
		if !n.Refractory() {
			t.Fatalf("tick %d: expected refractory", n.Time())
		}
	}

	n.Tick() // time=5, window 5-0 < 5 is false: relaxation resumes
	if n.Refractory() {
		t.Fatalf("expected refractory window to be over at tick %d", n.Time())
	}
	if got := n.Threshold(); !approx(got, 1.09) {
		t.Fatalf("expected threshold 1.09, got %v", got)
	}
}

func TestStimulateDroppedWhileRefractory(t *testing.T) {
	n := New(DefaultParams())
	n.Stimulate(1.0) // spike at tick 0
	n.Tick()
	n.Tick() // time=2, still inside the 5-tick window

	before := snap(n)
	n.Stimulate(5.0)
	after := snap(n)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("refractory stimulus changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestSpikeLogCapKeepsMostRecent(t *testing.T) {
	n := New(DefaultParams())
	for i := 0; i < 25; i++ {
		for j := 0; j < 5; j++ {
			n.Tick()
		}
		n.Stimulate(100)
	}
	if n.SpikeCount() != 25 {
		t.Fatalf("expected 25 spikes, got %d", n.SpikeCount())
	}
	times := n.SpikeTimes()
	if len(times) != MaxSpikesDisplay {
		t.Fatalf("expected %d retained spikes, got %d", MaxSpikesDisplay, len(times))
	}
	for i, tm := range times {
		want := (6 + i) * 5 // the last 20 of spikes at ticks 5,10,...,125
		if tm != want {
			t.Fatalf("spike %d: expected tick %d, got %d", i, want, tm)
		}
	}
}

func TestSampleSeriesCapKeepsMostRecent(t *testing.T) {
	n := New(DefaultParams())
	for i := 0; i < 1100; i++ {
		n.Tick()
	}
	samples := n.Samples()
	if len(samples) != MaxDataPoints {
		t.Fatalf("expected %d samples, got %d", MaxDataPoints, len(samples))
	}
	if samples[0].Time != 101 || samples[len(samples)-1].Time != 1100 {
		t.Fatalf("expected sample window [101,1100], got [%d,%d]",
			samples[0].Time, samples[len(samples)-1].Time)
	}
}

func TestThresholdFloorTracksParamChanges(t *testing.T) {
	n := New(DefaultParams())
	n.Stimulate(1.0) // threshold 1.1
	for i := 0; i < 5; i++ {
		n.Tick()
	}

	n.Params.MinThreshold = 0.5
	for i := 0; i < 200; i++ {
		n.Tick()
		if n.Threshold() < n.Params.MinThreshold {
			t.Fatalf("threshold %v fell below floor %v", n.Threshold(), n.Params.MinThreshold)
		}
	}
	if n.Threshold() != 0.5 {
		t.Fatalf("expected threshold to settle at 0.5, got %v", n.Threshold())
	}

	// Raising the floor re-clamps on the next relaxation step.
	n.Params.MinThreshold = 2.0
	n.Tick()
	if n.Threshold() != 2.0 {
		t.Fatalf("expected threshold re-clamped to 2.0, got %v", n.Threshold())
	}
}

func TestPotentialNeverNegative(t *testing.T) {
	n := New(DefaultParams())
	n.Params.DecayRate = 0.3
	mags := []float64{0.2, -0.5, 0.9, 0.1, 2.0, -1.0}
	for i := 0; i < 500; i++ {
		n.Stimulate(mags[i%len(mags)])
		if n.Potential() < 0 {
			t.Fatalf("step %d: negative potential %v", i, n.Potential())
		}
		n.Tick()
		if n.Potential() < 0 {
			t.Fatalf("step %d: negative potential after tick %v", i, n.Potential())
		}
	}
}

func TestSpikeOutcomeExclusive(t *testing.T) {
	n := New(DefaultParams())
	mags := []float64{0.3, 0.7, 0.05, 1.5, 0.449}
	for i := 0; i < 1000; i++ {
		before := snap(n)
		n.Stimulate(mags[i%len(mags)])
		switch {
		case n.SpikeCount() == before.SpikeCount+1:
			if n.Potential() != 0 {
				t.Fatalf("step %d: spike left residual potential %v", i, n.Potential())
			}
		case n.SpikeCount() == before.SpikeCount:
			if n.Potential() >= n.Threshold() {
				t.Fatalf("step %d: potential %v at or above threshold %v without a spike",
					i, n.Potential(), n.Threshold())
			}
		default:
			t.Fatalf("step %d: spike count jumped from %d to %d", i, before.SpikeCount, n.SpikeCount())
		}
		n.Tick()
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() snapshot {
		n := New(DefaultParams())
		for i := 0; i < 2000; i++ {
			if i%7 == 0 {
				n.Stimulate(0.4)
			}
			if i%13 == 0 {
				n.Stimulate(1.2)
			}
			n.Tick()
		}
		return snap(n)
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("replay diverged:\n%+v\n%+v", a, b)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	n := New(DefaultParams())
	for i := 0; i < 50; i++ {
		n.Stimulate(0.8)
		n.Tick()
	}
	n.Reset()

	if n.Time() != 0 || n.Potential() != 0 || n.Threshold() != 1.0 || n.SpikeCount() != 0 {
		t.Fatalf("unexpected state after reset: %+v", snap(n))
	}
	if _, ok := n.LastSpikeTime(); ok {
		t.Fatalf("expected no last spike after reset")
	}
	if len(n.SpikeTimes()) != 0 || len(n.Samples()) != 0 {
		t.Fatalf("expected empty history after reset")
	}
	if n.Refractory() {
		t.Fatalf("fresh neuron must not be refractory")
	}
}

func TestDisplayCeiling(t *testing.T) {
	n := New(DefaultParams())
	if got := n.DisplayCeiling(); got != 5 {
		t.Fatalf("expected floor ceiling 5, got %v", got)
	}
	for i := 0; i < 50; i++ {
		for j := 0; j < 5; j++ {
			n.Tick()
		}
		n.Stimulate(100)
	}
	if got := n.DisplayCeiling(); got != n.Threshold()+1 {
		t.Fatalf("expected ceiling threshold+1=%v, got %v", n.Threshold()+1, got)
	}
}
