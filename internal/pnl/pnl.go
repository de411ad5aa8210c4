package pnl

import (
	"math"
	"sync"

	"triarb/internal/infra/metrics"
)

// Tracker aggregates simulation statistics across scans. All values are
// percentages of the configured start amount, not realized money.
type Tracker struct {
	mu                  sync.Mutex
	simulated           int64
	filled              int64
	best                float64
	worst               float64
	cumulativeTheoretic float64
}

func NewTracker() *Tracker {
	return &Tracker{best: math.Inf(-1), worst: math.Inf(1)}
}

// RecordTheoretical accumulates the compounded-rate profit of a candidate.
func (t *Tracker) RecordTheoretical(profitPct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cumulativeTheoretic += profitPct
	metrics.CumulativeTheoretical.Set(t.cumulativeTheoretic)
}

// RecordSimulated accumulates one simulator run. filled is false for any
// degraded outcome.
func (t *Tracker) RecordSimulated(profitPct float64, filled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.simulated++
	if !filled {
		return
	}
	t.filled++
	if profitPct > t.best {
		t.best = profitPct
	}
	if profitPct < t.worst {
		t.worst = profitPct
	}
}

// Stats is a point-in-time copy for the status endpoint.
type Stats struct {
	Simulated                int64   `json:"simulated"`
	Filled                   int64   `json:"filled"`
	BestPct                  float64 `json:"best_pct"`
	WorstPct                 float64 `json:"worst_pct"`
	CumulativeTheoreticalPct float64 `json:"cumulative_theoretical_pct"`
}

func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{
		Simulated:                t.simulated,
		Filled:                   t.filled,
		BestPct:                  t.best,
		WorstPct:                 t.worst,
		CumulativeTheoreticalPct: t.cumulativeTheoretic,
	}
	if t.filled == 0 {
		s.BestPct, s.WorstPct = 0, 0
	}
	return s
}
