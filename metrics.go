package corelgo

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordRun is called once per Learn call. reason is meaningless when
	// err is not nil.
	RecordRun(reason Reason, duration time.Duration, err error)

	// RecordIncumbent is called whenever the best objective improves.
	RecordIncumbent(objective float64, length int)

	// RecordProgress is called every progress interval with the current
	// counters.
	RecordProgress(st Stats)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRun(Reason, time.Duration, error) {}
func (NoopMetricsCollector) RecordIncumbent(float64, int)           {}
func (NoopMetricsCollector) RecordProgress(Stats)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RunCount        atomic.Int64
	RunErrors       atomic.Int64
	OptimalRuns     atomic.Int64
	RunTotalNanos   atomic.Int64
	IncumbentCount  atomic.Int64
	objectiveBits   atomic.Uint64
	ProgressReports atomic.Int64
	LastIterations  atomic.Uint64
	LastFrontier    atomic.Int64
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(reason Reason, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	if reason.Optimal() {
		b.OptimalRuns.Add(1)
	}
}

// RecordIncumbent implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIncumbent(objective float64, _ int) {
	b.IncumbentCount.Add(1)
	b.objectiveBits.Store(math.Float64bits(objective))
}

// RecordProgress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProgress(st Stats) {
	b.ProgressReports.Add(1)
	b.LastIterations.Store(st.Iterations)
	b.LastFrontier.Store(int64(st.FrontierSize))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		RunCount:        b.RunCount.Load(),
		RunErrors:       b.RunErrors.Load(),
		OptimalRuns:     b.OptimalRuns.Load(),
		IncumbentCount:  b.IncumbentCount.Load(),
		LastObjective:   math.Float64frombits(b.objectiveBits.Load()),
		ProgressReports: b.ProgressReports.Load(),
		LastIterations:  b.LastIterations.Load(),
		LastFrontier:    b.LastFrontier.Load(),
	}
	if s.RunCount > 0 {
		s.RunAvgNanos = b.RunTotalNanos.Load() / s.RunCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunCount        int64
	RunErrors       int64
	OptimalRuns     int64
	RunAvgNanos     int64
	IncumbentCount  int64
	LastObjective   float64
	ProgressReports int64
	LastIterations  uint64
	LastFrontier    int64
}
