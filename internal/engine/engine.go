// Package engine implements a simplified leaky integrate-and-fire neuron.
package engine

import (
	"math"

	"github.com/spikelab/spikelab/internal/model"
)

const (
	// MaxSpikesDisplay caps the retained spike-time log.
	MaxSpikesDisplay = 20
	// MaxDataPoints caps the retained membrane time series.
	MaxDataPoints = 1000

	initialThreshold = 1.0
	timeStep         = 1

	// thresholdBump is the fixed upward threshold adaptation applied on
	// every spike.
	thresholdBump = 0.1
)

// Params are the tunable simulation parameters. They may be changed
// between calls; the neuron reads the current values on every operation.
type Params struct {
	DecayRate          float64
	ThresholdDecayRate float64
	MinThreshold       float64
	SpikeMagnitude     float64
	RefractoryPeriod   int
}

// DefaultParams returns the standard starting parameters.
func DefaultParams() Params {
	return Params{
		DecayRate:          0.01,
		ThresholdDecayRate: 0.01,
		MinThreshold:       1.0,
		SpikeMagnitude:     0.5,
		RefractoryPeriod:   5,
	}
}

// Neuron is the simulation engine. It is driven strictly sequentially by
// one caller: Tick advances logical time, Stimulate applies an input
// pulse, and the read accessors expose the state for rendering. It is
// not safe for concurrent use.
type Neuron struct {
	Params Params

	time       int
	potential  float64
	threshold  float64
	lastSpike  int // tick of the most recent spike, -1 until the first
	spikeCount int
	spikes     *ring[int]
	samples    *ring[model.Sample]
}

// New returns a neuron in its initial resting state.
func New(p Params) *Neuron {
	n := &Neuron{
		Params:  p,
		spikes:  newRing[int](MaxSpikesDisplay),
		samples: newRing[model.Sample](MaxDataPoints),
	}
	n.Reset()
	return n
}

// Reset restores the initial state and discards all history.
func (n *Neuron) Reset() {
	n.time = 0
	n.potential = 0
	n.threshold = initialThreshold
	n.lastSpike = -1
	n.spikeCount = 0
	n.spikes.clear()
	n.samples.clear()
}

// Tick advances logical time by one step: the threshold relaxes toward
// its floor unless the neuron is refractory, the potential decays toward
// zero unconditionally, and the post-decay values are recorded as one
// sample. Ticks never produce spikes; only Stimulate does.
func (n *Neuron) Tick() {
	n.time += timeStep
	if !n.refractoryAt(n.time) {
		n.threshold = math.Max(n.Params.MinThreshold, n.threshold-n.Params.ThresholdDecayRate)
	}
	n.potential = math.Max(0, n.potential-n.Params.DecayRate*timeStep)
	n.samples.push(model.Sample{Time: n.time, Potential: n.potential, Threshold: n.threshold})
}

// Stimulate applies an input pulse of the given magnitude. Exactly one
// of three outcomes occurs: the pulse is dropped while refractory, the
// neuron spikes and fully discharges, or the potential accumulates
// below threshold. The caller is responsible for filtering out
// non-finite magnitudes before calling.
func (n *Neuron) Stimulate(magnitude float64) {
	if n.refractoryAt(n.time) {
		return
	}
	next := n.potential + magnitude
	if next >= n.threshold {
		n.lastSpike = n.time
		n.threshold += thresholdBump
		n.spikeCount++
		n.spikes.push(n.time)
		n.potential = 0
		return
	}
	n.potential = math.Max(0, next)
}

// Refractory reports whether the neuron is inside the refractory window
// after its most recent spike. Recomputed from the current time on every
// call.
func (n *Neuron) Refractory() bool {
	return n.refractoryAt(n.time)
}

func (n *Neuron) refractoryAt(t int) bool {
	return n.lastSpike >= 0 && t-n.lastSpike < n.Params.RefractoryPeriod
}

// DisplayCeiling is the suggested y-axis ceiling for charting, keeping
// the threshold line comfortably inside the plot.
func (n *Neuron) DisplayCeiling() float64 {
	return math.Max(n.threshold+1, 5)
}

// Time returns the current logical tick.
func (n *Neuron) Time() int { return n.time }

// Potential returns the current membrane potential.
func (n *Neuron) Potential() float64 { return n.potential }

// Threshold returns the current firing threshold.
func (n *Neuron) Threshold() float64 { return n.threshold }

// SpikeCount returns the total number of spikes fired since the last reset.
func (n *Neuron) SpikeCount() int { return n.spikeCount }

// LastSpikeTime returns the tick of the most recent spike, and false if
// the neuron has never spiked.
func (n *Neuron) LastSpikeTime() (int, bool) {
	if n.lastSpike < 0 {
		return 0, false
	}
	return n.lastSpike, true
}

// SpikeTimes returns the retained spike ticks oldest-first.
func (n *Neuron) SpikeTimes() []int {
	return n.spikes.values()
}

// Samples returns the retained membrane time series oldest-first.
func (n *Neuron) Samples() []model.Sample {
	return n.samples.values()
}
