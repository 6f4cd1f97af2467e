package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lookbook-ai/lookbook/pkg/cache/disk"
	"github.com/lookbook-ai/lookbook/pkg/config"
	"github.com/lookbook-ai/lookbook/pkg/dedup"
	"github.com/lookbook-ai/lookbook/pkg/ledger"
	"github.com/lookbook-ai/lookbook/pkg/metrics"
)

func grayPNG(t *testing.T, intensity func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: intensity(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
}

// Analyze returns the same outfit for every URL, so distinct images
// still share a semantic key.
func (a *fakeAnalyzer) Analyze(ctx context.Context, imageURL string) (map[string]any, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return map[string]any{
		"clothing_items": []any{map[string]any{"type": "blazer"}},
		"colors":         []any{"beige"},
		"style":          "minimal",
	}, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, analysis map[string]any) (any, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return map[string]any{
		"title":       "Beige blazer look",
		"description": "Minimal layering for spring.",
		"hashtags":    "#blazer #minimal",
	}, nil
}

func newTestProcessor(t *testing.T, srv *httptest.Server) (*Processor, *fakeGenerator, *ledger.Ledger) {
	t.Helper()

	c, err := disk.New(filepath.Join(t.TempDir(), "cache"), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	led, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = led.Close() })

	gen := &fakeGenerator{}
	p := NewProcessor(Deps{
		Detector:  dedup.NewDetector(dedup.NewIndex(100, time.Hour), 5, srv.Client()),
		Cache:     c,
		Ledger:    led,
		Analyzer:  &fakeAnalyzer{},
		Generator: gen,
		Metrics:   metrics.NewTracker(),
	}, config.BatchConfig{
		MaxBatchSize:   100,
		Concurrency:    1, // deterministic ordering for the duplicate check
		RequestsPerSec: 1000,
	})
	return p, gen, led
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	vertical := grayPNG(t, func(x, _ int) uint8 {
		if x < 32 {
			return 0
		}
		return 255
	})
	horizontal := grayPNG(t, func(_, y int) uint8 {
		if y < 32 {
			return 0
		}
		return 255
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/a.png", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(vertical) })
	mux.HandleFunc("/b.png", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(vertical) })
	mux.HandleFunc("/c.png", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(horizontal) })
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("nope")) })

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProcessPipeline(t *testing.T) {
	srv := newImageServer(t)
	p, gen, led := newTestProcessor(t, srv)
	ctx := context.Background()

	urls := []string{srv.URL + "/a.png", srv.URL + "/b.png", srv.URL + "/c.png"}
	results, err := p.Process(ctx, "spring", urls)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Status != StatusOK || results[0].CacheHit {
		t.Errorf("first image: expected fresh ok, got %+v", results[0])
	}
	if results[1].Status != StatusDuplicate || results[1].MatchURL != urls[0] {
		t.Errorf("second image: expected duplicate of %s, got %+v", urls[0], results[1])
	}
	// c is a different image, but the analyzer reports the same outfit,
	// so content comes from the semantic cache.
	if results[2].Status != StatusOK || !results[2].CacheHit {
		t.Errorf("third image: expected cache hit, got %+v", results[2])
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 generator call, got %d", gen.calls)
	}

	urlsSeen, err := led.SeenURLs(ctx, "spring")
	if err != nil {
		t.Fatal(err)
	}
	if len(urlsSeen) != 2 {
		t.Errorf("expected a and c in the ledger, got %v", urlsSeen)
	}

	recs, _ := led.Records(ctx, "spring")
	if len(recs) == 0 || recs[0].Title != "Beige blazer look" {
		t.Errorf("ledger row missing content fields: %+v", recs)
	}
}

func TestProcessFailuresIsolated(t *testing.T) {
	srv := newImageServer(t)
	p, _, _ := newTestProcessor(t, srv)

	urls := []string{srv.URL + "/garbage", srv.URL + "/a.png"}
	results, err := p.Process(context.Background(), "spring", urls)
	if err != nil {
		t.Fatal(err)
	}

	if results[0].Status != StatusError || results[0].Err == nil {
		t.Errorf("undecodable image should fail its own result: %+v", results[0])
	}
	if !errors.Is(results[0].Err, dedup.ErrUndecodable) {
		t.Errorf("expected undecodable cause, got %v", results[0].Err)
	}
	if results[1].Status != StatusOK {
		t.Errorf("healthy URL should be unaffected: %+v", results[1])
	}
}

func TestProcessBatchTooLarge(t *testing.T) {
	srv := newImageServer(t)
	p, _, _ := newTestProcessor(t, srv)
	p.maxBatch = 2

	_, err := p.Process(context.Background(), "spring", []string{"u1", "u2", "u3"})
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge, got %v", err)
	}
}
