package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecordAndSnapshot(t *testing.T) {
	tr := NewTracker()
	for i := 1; i <= 100; i++ {
		tr.Record("cache.get", time.Duration(i)*time.Millisecond)
	}
	tr.Record("dedup.check", 5*time.Millisecond)

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(snap))
	}
	if snap[0].Op != "cache.get" || snap[1].Op != "dedup.check" {
		t.Errorf("snapshot not sorted by op: %v", snap)
	}

	get := snap[0]
	if get.Count != 100 {
		t.Errorf("expected 100 observations, got %d", get.Count)
	}
	// 1% relative accuracy: p50 of 1..100ms should land near 50ms.
	if get.P50 < 40 || get.P50 > 60 {
		t.Errorf("p50 out of range: %.2f", get.P50)
	}
	if get.P99 < get.P50 {
		t.Errorf("p99 (%.2f) below p50 (%.2f)", get.P99, get.P50)
	}
	if get.Max < 95 || get.Max > 105 {
		t.Errorf("max out of range: %.2f", get.Max)
	}
}

func TestObserve(t *testing.T) {
	tr := NewTracker()
	wantErr := errors.New("boom")

	err := tr.Observe("op", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("Observe must pass the error through, got %v", err)
	}

	snap := tr.Snapshot()
	if len(snap) != 1 || snap[0].Count != 1 {
		t.Errorf("expected one observation, got %v", snap)
	}
}

func TestEmptySnapshot(t *testing.T) {
	if snap := NewTracker().Snapshot(); len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}
}
