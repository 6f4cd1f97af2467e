package dedup

import (
	"fmt"
	"testing"
	"time"
)

func TestDistance(t *testing.T) {
	if d := Distance(0, 0); d != 0 {
		t.Errorf("expected distance 0, got %d", d)
	}
	if d := Distance(0x00, ^uint64(0)); d != 64 {
		t.Errorf("expected distance 64, got %d", d)
	}
	if d := Distance(0b1010, 0b0110); d != 2 {
		t.Errorf("expected distance 2, got %d", d)
	}
}

func TestIndexMatchThreshold(t *testing.T) {
	ix := NewIndex(10, time.Hour)
	ix.Add(0b11110000, "http://img/a")

	// 2 bits apart: within the default threshold of 5.
	if url, ok := ix.Match(0b11110011, 5, "http://img/b"); !ok || url != "http://img/a" {
		t.Errorf("expected match with a, got %q ok=%v", url, ok)
	}

	// 8 bits apart: no match.
	if _, ok := ix.Match(0b00001111, 5, "http://img/b"); ok {
		t.Error("expected no match beyond threshold")
	}
}

func TestIndexSelfExclusion(t *testing.T) {
	ix := NewIndex(10, time.Hour)
	ix.Add(42, "http://img/a")

	if _, ok := ix.Match(42, 5, "http://img/a"); ok {
		t.Error("an entry must not match its own URL")
	}
}

func TestIndexExpiry(t *testing.T) {
	ix := NewIndex(10, time.Millisecond)
	ix.Add(42, "http://img/a")
	time.Sleep(10 * time.Millisecond)

	if _, ok := ix.Match(42, 5, "http://img/b"); ok {
		t.Error("expired entry should not match")
	}
	ix.Sweep()
	if n := ix.Len(); n != 0 {
		t.Errorf("expected empty index after sweep, got %d entries", n)
	}
}

func TestIndexCapacityEviction(t *testing.T) {
	ix := NewIndex(3, time.Hour)
	for i := 0; i < 4; i++ {
		ix.Add(uint64(i)<<32, fmt.Sprintf("http://img/%d", i))
		time.Sleep(2 * time.Millisecond) // distinct insertion times
	}

	if n := ix.Len(); n != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", n)
	}
	// The earliest-inserted hash is the one evicted.
	if _, ok := ix.Match(0, 0, "other"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := ix.Match(3<<32, 0, "other"); !ok {
		t.Error("newest entry should survive eviction")
	}
}
