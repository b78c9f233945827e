package session

import (
	"log/slog"
	"sort"
	"time"
)

// Stats accumulates per-session query counters. The session loop handles one
// query at a time, so no locking is needed.
type Stats struct {
	Queries     int
	Failed      int
	ZeroResults int
	latencies   []time.Duration
}

// Record adds one completed query turn.
func (s *Stats) Record(latency time.Duration, results int, failed bool) {
	s.Queries++
	s.latencies = append(s.latencies, latency)
	if failed {
		s.Failed++
		return
	}
	if results == 0 {
		s.ZeroResults++
	}
}

// LogSummary writes the session totals to the log, once at exit.
func (s *Stats) LogSummary(log *slog.Logger) {
	attrs := []any{
		"queries", s.Queries,
		"failed", s.Failed,
		"zero_results", s.ZeroResults,
	}
	if len(s.latencies) > 0 {
		sorted := make([]time.Duration, len(s.latencies))
		copy(sorted, s.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum time.Duration
		for _, l := range sorted {
			sum += l
		}
		attrs = append(attrs,
			"avg_latency", sum/time.Duration(len(sorted)),
			"p95_latency", percentile(sorted, 95),
		)
	}
	log.Info("session summary", attrs...)
}

func percentile(sorted []time.Duration, pct int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
