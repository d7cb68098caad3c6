package pipeline

import (
	"testing"

	"assetforge/internal/domain"
)

func TestBuildKeyDeterministic(t *testing.T) {
	a := BuildKey("a red bicycle", "sketch", "1024x1024", "png")
	b := BuildKey("a red bicycle", "sketch", "1024x1024", "png")
	if a != b {
		t.Fatalf("identical inputs produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestBuildKeyDivergesPerField(t *testing.T) {
	base := BuildKey("a red bicycle", "sketch", "1024x1024", "png")
	variants := []struct {
		name                        string
		prompt, style, size, format string
	}{
		{"prompt", "a blue bicycle", "sketch", "1024x1024", "png"},
		{"style", "a red bicycle", "photo", "1024x1024", "png"},
		{"size", "a red bicycle", "sketch", "512x512", "png"},
		{"format", "a red bicycle", "sketch", "1024x1024", "webp"},
	}
	for _, v := range variants {
		if got := BuildKey(v.prompt, v.style, v.size, v.format); got == base {
			t.Fatalf("changing %s did not change the key", v.name)
		}
	}
}

func TestBuildKeyFieldBoundaries(t *testing.T) {
	// Shifting content across field boundaries must not collide.
	a := BuildKey("ab", "c", "1024x1024", "png")
	b := BuildKey("a", "bc", "1024x1024", "png")
	if a == b {
		t.Fatalf("field boundary shuffle collided")
	}
}

func TestKeyForIdempotencyOverride(t *testing.T) {
	req := domain.GenerationRequest{
		Prompt:         "a red bicycle",
		Size:           "1024x1024",
		Format:         "png",
		IdempotencyKey: "order-42",
	}
	if got := KeyFor(req); got != "order-42" {
		t.Fatalf("KeyFor = %q, want idempotency key verbatim", got)
	}
	req.IdempotencyKey = ""
	if got := KeyFor(req); got != BuildKey("a red bicycle", "", "1024x1024", "png") {
		t.Fatalf("KeyFor without idempotency key should fall back to content hash")
	}
}
