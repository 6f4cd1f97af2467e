package dedup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// CheckError wraps any fetch or decode failure during a duplicate
// check. A failed check is never reported as "not a duplicate".
type CheckError struct {
	URL string
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("duplicate check for %s: %v", e.URL, e.Err)
}

func (e *CheckError) Unwrap() error { return e.Err }

// Detector fetches images and checks them against a hash index.
type Detector struct {
	index      *Index
	client     *http.Client
	threshold  int
	maxRetries uint64
}

// NewDetector creates a detector using the given index and Hamming
// distance threshold. A nil client falls back to a default one with a
// 30 second timeout.
func NewDetector(index *Index, threshold int, client *http.Client) *Detector {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Detector{
		index:      index,
		client:     client,
		threshold:  threshold,
		maxRetries: 2,
	}
}

// Check reports whether the image at url is a near-duplicate of one
// already seen this session, and if so which URL it matched. Unseen
// images are recorded in the index.
//
// The fetch and hash run outside the index lock; only the sweep, the
// match scan, and the insert are exclusive sections.
func (d *Detector) Check(ctx context.Context, url string) (bool, string, error) {
	d.index.Sweep()

	body, err := d.fetch(ctx, url)
	if err != nil {
		return false, "", &CheckError{URL: url, Err: err}
	}

	hash, err := ComputeHash(bytes.NewReader(body))
	if err != nil {
		return false, "", &CheckError{URL: url, Err: err}
	}

	if match, ok := d.index.Match(hash, d.threshold, url); ok {
		return true, match, nil
	}

	d.index.Add(hash, url)
	return false, "", nil
}

func (d *Detector) fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return body, nil
}
