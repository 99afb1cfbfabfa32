package translate

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at     time.Time
	millis int64
	failed bool
}

// StatsSnapshot aggregates the calls seen within the stats window.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// LLMStats tracks recent model call latencies within a rolling window.
// Latency figures only cover calls that got an HTTP response.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{
		samples: make([]sample, 0, 256),
		window:  window,
	}
}

// Record adds a successful call of durationMs.
func (s *LLMStats) Record(durationMs int64) {
	s.add(sample{millis: max(0, durationMs)})
}

// RecordFailure counts a call that failed before a response arrived.
func (s *LLMStats) RecordFailure() {
	s.add(sample{failed: true})
}

func (s *LLMStats) add(sm sample) {
	sm.at = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		if sm.failed {
			snap.Failed++
			continue
		}
		values = append(values, sm.millis)
		sum += sm.millis
	}
	if len(values) == 0 {
		return snap
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

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.samples[:0]
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples = kept
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
