// Package dedup detects near-duplicate images by perceptual average
// hash: visually similar images produce hashes within a small Hamming
// distance of each other, so matching is a thresholded comparison
// rather than an exact lookup.
package dedup

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math/bits"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
)

// ErrUndecodable is returned when bytes cannot be decoded as an image.
var ErrUndecodable = errors.New("dedup: undecodable image")

// ComputeHash decodes an image and returns its 64-bit perceptual
// average hash.
func ComputeHash(r io.Reader) (uint64, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	h, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("average hash: %w", err)
	}
	return h.GetHash(), nil
}

// Distance is the Hamming distance between two hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
