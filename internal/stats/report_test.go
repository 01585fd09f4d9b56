package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spikelab/spikelab/internal/model"
	"github.com/spikelab/spikelab/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "spikelab.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		stats := model.SessionStats{
			StartedAt:          start,
			EndedAt:            end,
			Ticks:              1000,
			SpikeCount:         4,
			DecayRate:          0.01,
			ThresholdDecayRate: 0.01,
			MinThreshold:       1.0,
			SpikeMagnitude:     0.5,
			DurationMs:         end.Sub(start).Milliseconds(),
		}
		id, err := st.InsertSession(ctx, stats, []int{100, 300, 600, 900})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	cfg := model.StatsConfig{Last: 2, CurveWindow: 2}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	ticks := report.SpikeTicks[ids[2]]
	if len(ticks) != 4 || ticks[0] != 100 || ticks[3] != 900 {
		t.Fatalf("unexpected spike ticks: %v", ticks)
	}
	if _, ok := report.SpikeTicks[ids[0]]; ok {
		t.Fatalf("expected spike ticks only for selected sessions")
	}
}

func TestBuildReportSinceFilter(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "spikelab.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		end := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		_, err := st.InsertSession(ctx, model.SessionStats{
			StartedAt: end.Add(-time.Minute),
			EndedAt:   end,
			Ticks:     100,
		}, nil)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	since := time.Unix(0, 0).Add(30 * time.Minute)
	report, err := BuildReport(ctx, st, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 1 {
		t.Fatalf("expected 1 session after since filter, got %d", len(report.Sessions))
	}
}
