package schedule

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadParsesAndSorts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sched.txt")
	content := "# warmup\n10 0.5\n\n3 1.25\n10 0.2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	events, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []Event{
		{Tick: 3, Magnitude: 1.25},
		{Tick: 10, Magnitude: 0.5},
		{Tick: 10, Magnitude: 0.2},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i].Tick != want[i].Tick {
			t.Errorf("event %d tick = %d, want %d", i, events[i].Tick, want[i].Tick)
		}
	}
	if events[0] != want[0] {
		t.Errorf("first event = %+v, want %+v", events[0], want[0])
	}
}

func TestLoadRejectsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing-field": "5\n",
		"bad-tick":      "five 0.5\n",
		"bad-magnitude": "5 lots\n",
		"negative-tick": "-3 0.5\n",
		"empty":         "# only comments\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error, got none", name)
		}
	}
}

func TestRegularSpacing(t *testing.T) {
	events := Regular(5, 17, 0.5)
	want := []Event{
		{Tick: 5, Magnitude: 0.5},
		{Tick: 10, Magnitude: 0.5},
		{Tick: 15, Magnitude: 0.5},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("Regular(5, 17, 0.5) = %+v, want %+v", events, want)
	}
	if got := Regular(0, 100, 0.5); got != nil {
		t.Errorf("Regular with zero interval = %+v, want nil", got)
	}
}

func TestPoissonDeterministicForSeed(t *testing.T) {
	a := Poisson(0.2, 500, 0.5, 42)
	b := Poisson(0.2, 500, 0.5, 42)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different schedules")
	}
	if len(a) == 0 {
		t.Fatal("expected some events at rate 0.2 over 500 ticks")
	}
	for _, ev := range a {
		if ev.Tick < 1 || ev.Tick > 500 {
			t.Errorf("event tick %d outside [1, 500]", ev.Tick)
		}
	}
}
