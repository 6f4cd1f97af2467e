package cache

import (
	"errors"
	"testing"
)

func TestSemanticKeyOrderInvariance(t *testing.T) {
	a := Structured(map[string]any{
		"clothing_items": []any{
			map[string]any{"type": "jacket"},
			map[string]any{"type": "dress"},
		},
		"colors":    []any{"navy", "cream"},
		"materials": []any{"wool", "silk"},
		"style":     "casual",
	})
	b := Structured(map[string]any{
		"clothing_items": []any{
			map[string]any{"type": "dress"},
			map[string]any{"type": "jacket"},
		},
		"colors":    []any{"cream", "navy"},
		"materials": []any{"silk", "wool"},
		"style":     "casual",
	})

	ka, err := SemanticKey(a)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := SemanticKey(b)
	if err != nil {
		t.Fatal(err)
	}
	if ka != kb {
		t.Errorf("reordered lists should produce the same key: %s vs %s", ka, kb)
	}
}

func TestSemanticKeyDistinguishesContent(t *testing.T) {
	a := Structured(map[string]any{"colors": []any{"red"}})
	b := Structured(map[string]any{"colors": []any{"blue"}})

	ka, _ := SemanticKey(a)
	kb, _ := SemanticKey(b)
	if ka == kb {
		t.Error("different colors should produce different keys")
	}
}

func TestSemanticKeyRawString(t *testing.T) {
	k1, err := SemanticKey(Raw("a plain description"))
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := SemanticKey(Raw("a plain description"))
	if k1 != k2 {
		t.Error("same raw string should produce same key")
	}
	if len(k1) != 64 {
		t.Errorf("expected hex digest, got %q", k1)
	}
}

func TestSemanticKeyJSONString(t *testing.T) {
	fromString, err := SemanticKey(Raw(`{"colors": ["red", "blue"], "style": "boho"}`))
	if err != nil {
		t.Fatal(err)
	}
	fromMap, err := SemanticKey(Structured(map[string]any{
		"colors": []any{"blue", "red"},
		"style":  "boho",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if fromString != fromMap {
		t.Error("JSON string and equivalent map should share a key")
	}
}

func TestSemanticKeyInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   Input
	}{
		{"zero value", Input{}},
		{"nil map", Structured(nil)},
		{"malformed JSON", Raw("{invalid json}")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := SemanticKey(tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSemanticKeyFallback(t *testing.T) {
	// No recognized semantic fields: whole-map fallback, still stable.
	in := Structured(map[string]any{"zeta": 1, "alpha": "x"})
	k1, err := SemanticKey(in)
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := SemanticKey(in)
	if k1 != k2 {
		t.Error("fallback key should be deterministic")
	}
}
