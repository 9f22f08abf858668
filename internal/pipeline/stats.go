package pipeline

import (
	"sort"
	"sync"
	"time"
)

type parseSample struct {
	at          time.Time
	durationMs  int64
	records     int
	diagnostics int
	failed      bool
}

// StatsSnapshot aggregates the parses seen within the window.
type StatsSnapshot struct {
	Count       int     `json:"count"`
	Failed      int     `json:"failed"`
	Records     int     `json:"records"`
	Diagnostics int     `json:"diagnostics"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
}

// ParseStats tracks recent parse outcomes within a rolling window.
type ParseStats struct {
	mu      sync.Mutex
	samples []parseSample
	window  time.Duration
}

func NewParseStats(window time.Duration) *ParseStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ParseStats{
		samples: make([]parseSample, 0, 256),
		window:  window,
	}
}

// Record adds a successful parse.
func (s *ParseStats) Record(durationMs int64, records, diagnostics int) {
	s.add(parseSample{durationMs: durationMs, records: records, diagnostics: diagnostics})
}

// RecordFailure adds a parse that returned an error.
func (s *ParseStats) RecordFailure(durationMs int64) {
	s.add(parseSample{durationMs: durationMs, failed: true})
}

func (s *ParseStats) add(sm parseSample) {
	if sm.durationMs < 0 {
		sm.durationMs = 0
	}
	sm.at = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(sm.at)
	s.samples = append(s.samples, sm)
}

// Snapshot aggregates the samples still inside the window. Latency figures
// cover every parse, failed ones included.
func (s *ParseStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		snap.Records += sm.records
		snap.Diagnostics += sm.diagnostics
		if sm.failed {
			snap.Failed++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *ParseStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.samples[:0]
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples = kept
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	if lower == upper {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
