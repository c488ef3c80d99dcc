package pipeline

import (
	"fmt"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are recorded in milliseconds; an hour is far beyond any
// configurable request timeout.
const (
	latencyMinMs = 1
	latencyMaxMs = 3_600_000
	latencySig   = 3
)

// RunStats tracks one run's counters and fetch latencies. The pipeline is
// single-threaded, so no locking is needed.
type RunStats struct {
	StartTime time.Time
	Duration  time.Duration

	RowsVisited   int64
	Succeeded     int64
	Failed        int64
	ParseFailures int64
	FacesWritten  int64
	FacesSkipped  int64
	FetchAttempts int64

	latencies *hdrhistogram.Histogram
}

// NewRunStats creates RunStats with the clock started.
func NewRunStats() *RunStats {
	return &RunStats{
		StartTime: time.Now(),
		latencies: hdrhistogram.New(latencyMinMs, latencyMaxMs, latencySig),
	}
}

// RecordFetch records one fetch attempt's wall-clock duration.
func (s *RunStats) RecordFetch(d time.Duration) {
	s.FetchAttempts++
	ms := d.Milliseconds()
	if ms < latencyMinMs {
		ms = latencyMinMs
	}
	if ms > latencyMaxMs {
		ms = latencyMaxMs
	}
	// RecordValue only fails outside the configured range, which the clamp
	// above rules out.
	_ = s.latencies.RecordValue(ms)
}

// UpdateDuration stamps the total elapsed time.
func (s *RunStats) UpdateDuration() {
	s.Duration = time.Since(s.StartTime)
}

// FetchLatencyMs returns the latency value at quantile q in milliseconds.
func (s *RunStats) FetchLatencyMs(q float64) int64 {
	if s.latencies.TotalCount() == 0 {
		return 0
	}
	return s.latencies.ValueAtQuantile(q)
}

// String returns a one-line summary of the run.
func (s *RunStats) String() string {
	return fmt.Sprintf("Visited: %d, Success: %d, Failed: %d, Faces: %d (skipped %d), Attempts: %d, Fetch p50/p95/p99: %d/%d/%d ms, Duration: %v",
		s.RowsVisited, s.Succeeded, s.Failed, s.FacesWritten, s.FacesSkipped, s.FetchAttempts,
		s.FetchLatencyMs(50), s.FetchLatencyMs(95), s.FetchLatencyMs(99), s.Duration.Round(time.Millisecond))
}
