// Package cache derives semantic keys for analysis results. A semantic
// key hashes the meaning-bearing fields of an analysis (garment types,
// colors, materials, style) with each list sorted, so two analyses that
// describe the same outfit in a different order land on the same key.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput is returned for nil, empty, or malformed cache inputs.
var ErrInvalidInput = errors.New("cache: invalid input")

// ErrUnavailable is returned when the cache backing store cannot be
// created or written to.
var ErrUnavailable = errors.New("cache: backing store unavailable")

type inputKind int

const (
	kindNone inputKind = iota
	kindRaw
	kindStructured
)

// Input is the tagged union of supported cache inputs: a raw string or a
// structured analysis map. The zero value is invalid.
type Input struct {
	kind inputKind
	raw  string
	obj  map[string]any
}

// Raw wraps an unstructured string input. Strings that look like JSON
// objects are parsed during key derivation.
func Raw(s string) Input {
	return Input{kind: kindRaw, raw: s}
}

// Structured wraps a parsed analysis map.
func Structured(m map[string]any) Input {
	return Input{kind: kindStructured, obj: m}
}

// SemanticKey derives a stable hex key for the input.
//
// Raw strings that do not look like JSON hash as-is. Raw strings
// starting with "{" must parse as JSON objects and are keyed like
// structured input; a parse failure is ErrInvalidInput, not a silent
// fallback to byte hashing.
func SemanticKey(in Input) (string, error) {
	switch in.kind {
	case kindRaw:
		trimmed := strings.TrimSpace(in.raw)
		if !strings.HasPrefix(trimmed, "{") {
			return digest(in.raw), nil
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return "", fmt.Errorf("%w: malformed JSON string: %v", ErrInvalidInput, err)
		}
		return structuredKey(obj)
	case kindStructured:
		if in.obj == nil {
			return "", fmt.Errorf("%w: nil analysis", ErrInvalidInput)
		}
		return structuredKey(in.obj)
	default:
		return "", fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
}

func structuredKey(obj map[string]any) (string, error) {
	var parts []string

	if items, ok := obj["clothing_items"].([]any); ok {
		types := make([]string, 0, len(items))
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			t, _ := m["type"].(string)
			types = append(types, t)
		}
		sort.Strings(types)
		parts = append(parts, types...)
	}

	parts = append(parts, sortedStrings(obj["colors"])...)
	parts = append(parts, sortedStrings(obj["materials"])...)

	if style, ok := obj["style"].(string); ok {
		parts = append(parts, style)
	}

	// No semantic characteristics: fall back to the whole map.
	// json.Marshal emits map keys in sorted order, so the fallback is
	// deterministic too.
	if len(parts) == 0 {
		data, err := json.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("%w: unserializable analysis: %v", ErrInvalidInput, err)
		}
		return digest(string(data)), nil
	}

	return digest(strings.Join(parts, "|")), nil
}

func sortedStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, _ := item.(string)
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}
