package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spikelab/spikelab/internal/model"
)

func TestFiringRate(t *testing.T) {
	if got := FiringRate(5, 1000); got != 5 {
		t.Fatalf("expected 5 spikes/1k, got %v", got)
	}
	if got := FiringRate(3, 0); got != 0 {
		t.Fatalf("expected 0 for zero ticks, got %v", got)
	}
}

func TestMeanISI(t *testing.T) {
	if got := MeanISI([]int{10, 20, 40}); got != 15 {
		t.Fatalf("expected mean ISI 15, got %v", got)
	}
	if got := MeanISI([]int{7}); got != 0 {
		t.Fatalf("expected 0 for a single spike, got %v", got)
	}
	if got := MeanISI(nil); got != 0 {
		t.Fatalf("expected 0 for no spikes, got %v", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	passthrough := MovingAverage([]float64{1, 2}, 1)
	if passthrough[0] != 1 || passthrough[1] != 2 {
		t.Fatalf("expected window 1 to pass through, got %v", passthrough)
	}
}

func TestSparkline(t *testing.T) {
	out := Sparkline([]float64{0, 5, 10})
	if len(out) != 3 {
		t.Fatalf("expected 3 chars, got %q", out)
	}
	if out[0] != sparkChars[0] || out[2] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("expected min/max endpoints, got %q", out)
	}
	flat := Sparkline([]float64{2, 2, 2})
	if flat != strings.Repeat(string(sparkChars[len(sparkChars)/2]), 3) {
		t.Fatalf("expected flat sparkline, got %q", flat)
	}
}

func TestRenderSummaryAndTable(t *testing.T) {
	sessions := []model.SessionAggregate{
		{SessionID: 1, EndedAt: time.Unix(0, 0).UTC(), Ticks: 1000, SpikeCount: 10, DurationMs: 5000},
		{SessionID: 2, EndedAt: time.Unix(60, 0).UTC(), Ticks: 500, SpikeCount: 10, DurationMs: 2500},
	}
	spikeTicks := map[int64][]int{
		1: {100, 200, 300},
		2: {50},
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	if !containsAll(out, []string{"Sessions: 2", "Total spikes: 20", "Avg rate: 15.00", "Best rate: 20.00"}) {
		t.Fatalf("summary missing expected lines:\n%s", out)
	}

	buf.Reset()
	if err := RenderSessionTable(&buf, sessions, spikeTicks); err != nil {
		t.Fatalf("RenderSessionTable failed: %v", err)
	}
	out = buf.String()
	if !containsAll(out, []string{"Ended", "Rate/1k", "Mean ISI", "100.0", "10.00", "20.00"}) {
		t.Fatalf("table missing expected cells:\n%s", out)
	}
	// Single-spike sessions have no ISI.
	if !strings.Contains(out, "-") {
		t.Fatalf("expected dash for missing ISI:\n%s", out)
	}
}

func TestRenderRateCurves(t *testing.T) {
	sessions := []model.SessionAggregate{
		{SessionID: 1, Ticks: 1000, SpikeCount: 5},
		{SessionID: 2, Ticks: 1000, SpikeCount: 10},
		{SessionID: 3, Ticks: 1000, SpikeCount: 20},
	}
	var buf bytes.Buffer
	if err := RenderRateCurvesWithSize(&buf, sessions, map[int64][]int{}, 2, 40, 6, false); err != nil {
		t.Fatalf("RenderRateCurves failed: %v", err)
	}
	out := buf.String()
	if !containsAll(out, []string{"Firing Across Sessions", "rate/1k", "mean ISI", "Legend:"}) {
		t.Fatalf("curves missing expected output:\n%s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
