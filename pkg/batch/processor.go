// Package batch runs the per-image pipeline over a list of URLs:
// duplicate check, vision analysis, semantic-cached content generation,
// and ledger recording. The vision and content APIs are external
// collaborators supplied as interfaces.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/lookbook-ai/lookbook/pkg/cache"
	"github.com/lookbook-ai/lookbook/pkg/cache/disk"
	"github.com/lookbook-ai/lookbook/pkg/config"
	"github.com/lookbook-ai/lookbook/pkg/dedup"
	"github.com/lookbook-ai/lookbook/pkg/ledger"
	"github.com/lookbook-ai/lookbook/pkg/metrics"
	"github.com/lookbook-ai/lookbook/pkg/models"
)

// ErrBatchTooLarge is returned when a batch exceeds the configured
// maximum number of URLs.
var ErrBatchTooLarge = errors.New("batch: too many urls")

// Analyzer is the external vision API: image URL in, structured
// analysis out.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (map[string]any, error)
}

// Generator is the external content API: analysis in, content payload
// out.
type Generator interface {
	Generate(ctx context.Context, analysis map[string]any) (any, error)
}

// Status classifies the outcome for one URL.
type Status string

const (
	StatusOK        Status = "ok"
	StatusDuplicate Status = "duplicate"
	StatusError     Status = "error"
)

// Result is the per-URL outcome. A failed URL never aborts the batch.
type Result struct {
	URL      string
	Status   Status
	MatchURL string
	Content  json.RawMessage
	CacheHit bool
	Err      error
}

// Deps are the collaborators a Processor drives.
type Deps struct {
	Detector  *dedup.Detector
	Cache     *disk.Cache
	Ledger    *ledger.Ledger // optional
	Analyzer  Analyzer
	Generator Generator
	Metrics   *metrics.Tracker // optional
}

// Processor fans a batch of image URLs over a bounded worker pool.
type Processor struct {
	deps        Deps
	limiter     *rate.Limiter
	maxBatch    int
	concurrency int
}

// NewProcessor creates a processor with the given collaborators and
// batch configuration.
func NewProcessor(deps Deps, cfg config.BatchConfig) *Processor {
	return &Processor{
		deps:        deps,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		maxBatch:    cfg.MaxBatchSize,
		concurrency: cfg.Concurrency,
	}
}

// Process runs the pipeline for every URL and returns one Result per
// URL in input order.
func (p *Processor) Process(ctx context.Context, sheetName string, urls []string) ([]Result, error) {
	if len(urls) > p.maxBatch {
		return nil, fmt.Errorf("%w: %d urls, maximum is %d", ErrBatchTooLarge, len(urls), p.maxBatch)
	}

	results := make([]Result, len(urls))
	wp := pool.New().WithMaxGoroutines(p.concurrency).WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		wp.Go(func(ctx context.Context) error {
			results[i] = p.processOne(ctx, sheetName, url)
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Processor) processOne(ctx context.Context, sheetName, url string) Result {
	res := Result{URL: url, Status: StatusError}

	if err := p.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	dup, match, err := p.deps.Detector.Check(ctx, url)
	p.record("dedup.check", start)
	if err != nil {
		res.Err = err
		return res
	}
	if dup {
		res.Status = StatusDuplicate
		res.MatchURL = match
		return res
	}

	analysis, err := p.deps.Analyzer.Analyze(ctx, url)
	if err != nil {
		res.Err = fmt.Errorf("analyze %s: %w", url, err)
		return res
	}
	in := cache.Structured(analysis)

	start = time.Now()
	content, hit, err := p.deps.Cache.Get(in)
	p.record("cache.get", start)
	if err != nil {
		res.Err = err
		return res
	}

	if !hit {
		generated, err := p.deps.Generator.Generate(ctx, analysis)
		if err != nil {
			res.Err = fmt.Errorf("generate for %s: %w", url, err)
			return res
		}
		raw, err := json.Marshal(generated)
		if err != nil {
			res.Err = fmt.Errorf("marshal content for %s: %w", url, err)
			return res
		}
		content = raw

		start = time.Now()
		err = p.deps.Cache.Set(in, json.RawMessage(raw))
		p.record("cache.set", start)
		if err != nil {
			res.Err = err
			return res
		}
	}

	if p.deps.Ledger != nil {
		if err := p.deps.Ledger.Save(ctx, contentRecord(sheetName, url, content)); err != nil {
			res.Err = err
			return res
		}
	}

	res.Status = StatusOK
	res.Content = content
	res.CacheHit = hit
	return res
}

func (p *Processor) record(op string, start time.Time) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.Record(op, time.Since(start))
	}
}

// contentRecord lifts the well-known fields out of an otherwise opaque
// content payload for the ledger row.
func contentRecord(sheetName, url string, content json.RawMessage) models.ContentRecord {
	var fields struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Hashtags    string `json:"hashtags"`
	}
	_ = json.Unmarshal(content, &fields)

	return models.ContentRecord{
		SheetName:   sheetName,
		ImageURL:    url,
		Title:       fields.Title,
		Description: fields.Description,
		Hashtags:    fields.Hashtags,
	}
}
