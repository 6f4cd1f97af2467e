// Package metrics tracks per-operation latency quantiles for the cache
// and dedup paths.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

const relativeAccuracy = 0.01

// Tracker records operation latencies into one DDSketch per operation.
type Tracker struct {
	mu       sync.Mutex
	sketches map[string]*ddsketch.DDSketch
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sketches: make(map[string]*ddsketch.DDSketch)}
}

// Record adds one observation, in milliseconds, for op.
func (t *Tracker) Record(op string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sketch, ok := t.sketches[op]
	if !ok {
		var err error
		sketch, err = ddsketch.NewDefaultDDSketch(relativeAccuracy)
		if err != nil {
			return
		}
		t.sketches[op] = sketch
	}
	_ = sketch.Add(float64(d.Microseconds()) / 1000.0)
}

// Observe runs fn and records its duration under op.
func (t *Tracker) Observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(op, time.Since(start))
	return err
}

// OpStats summarizes one operation's latency distribution in
// milliseconds.
type OpStats struct {
	Op    string
	Count int64
	P50   float64
	P95   float64
	P99   float64
	Max   float64
}

func (s OpStats) String() string {
	return fmt.Sprintf("%s (n=%d): p50=%.2fms p95=%.2fms p99=%.2fms max=%.2fms",
		s.Op, s.Count, s.P50, s.P95, s.P99, s.Max)
}

// Snapshot returns stats for every tracked operation, sorted by name.
func (t *Tracker) Snapshot() []OpStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]OpStats, 0, len(t.sketches))
	for op, sketch := range t.sketches {
		s := OpStats{Op: op, Count: int64(sketch.GetCount())}
		if s.Count > 0 {
			s.P50, _ = sketch.GetValueAtQuantile(0.50)
			s.P95, _ = sketch.GetValueAtQuantile(0.95)
			s.P99, _ = sketch.GetValueAtQuantile(0.99)
			s.Max, _ = sketch.GetMaxValue()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}
