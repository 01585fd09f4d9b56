package tui

import (
	"strings"
	"testing"

	"github.com/spikelab/spikelab/internal/engine"
	"github.com/spikelab/spikelab/internal/model"
)

func newTestModel() *Model {
	cfg := model.Config{TickMs: 100, ChartHeight: 8}
	return NewModel(cfg, nil, engine.New(engine.DefaultParams()))
}

func TestParseMagnitude(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"0.5", 0.5, true},
		{" 1.25 ", 1.25, true},
		{"-0.3", -0.3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"+Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseMagnitude(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseMagnitude(%q) = (%v, %v), want (%v, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRenderStatusShowsRefractoryAndPaused(t *testing.T) {
	m := newTestModel()
	m.neuron.Tick()
	m.neuron.Stimulate(2.0)
	m.running = false

	out := m.renderStatus()
	if !strings.Contains(out, "REFRACTORY") {
		t.Errorf("status missing refractory badge: %s", out)
	}
	if !strings.Contains(out, "PAUSED") {
		t.Errorf("status missing paused badge: %s", out)
	}
	if !strings.Contains(out, "spikes=1") {
		t.Errorf("status missing spike count: %s", out)
	}
}

func TestAdjustParamClampsAtZero(t *testing.T) {
	m := newTestModel()
	m.paramIndex = 4 // refractory
	for i := 0; i < 10; i++ {
		m.adjustParam(-1)
	}
	if got := m.neuron.Params.RefractoryPeriod; got != 0 {
		t.Errorf("refractory period = %d, want 0", got)
	}
	m.paramIndex = 0 // decay
	for i := 0; i < 10; i++ {
		m.adjustParam(-1)
	}
	if got := m.neuron.Params.DecayRate; got != 0 {
		t.Errorf("decay rate = %v, want 0", got)
	}
	m.adjustParam(1)
	if got := m.neuron.Params.DecayRate; got != 0.005 {
		t.Errorf("decay rate after raise = %v, want 0.005", got)
	}
}

func TestSpikeMarkersMapIntoVisibleWindow(t *testing.T) {
	m := newTestModel()
	for i := 0; i < 10; i++ {
		m.neuron.Tick()
		if i == 4 {
			m.neuron.Stimulate(2.0)
		}
	}
	samples := m.neuron.Samples()
	markers := m.spikeMarkers(samples)
	if len(markers) != 1 {
		t.Fatalf("got %d markers, want 1", len(markers))
	}
	// Spike fired at tick 5; the window starts at tick 1.
	if markers[0] != 4 {
		t.Errorf("marker index = %d, want 4", markers[0])
	}
}

func TestSpikeMarkersDropEvictedSpikes(t *testing.T) {
	m := newTestModel()
	m.neuron.Tick()
	m.neuron.Stimulate(2.0)
	samples := []model.Sample{{Time: 100}, {Time: 101}}
	if markers := m.spikeMarkers(samples); len(markers) != 0 {
		t.Errorf("expected no markers for spikes before visible window, got %v", markers)
	}
}
