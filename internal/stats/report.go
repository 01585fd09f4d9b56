// Package stats contains firing statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/spikelab/spikelab/internal/model"
	"github.com/spikelab/spikelab/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions   []model.SessionAggregate
	SpikeTicks map[int64][]int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	spikeTicks, err := st.ListSpikeTicks(ctx, ids)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:   sessions,
		SpikeTicks: spikeTicks,
	}, nil
}
