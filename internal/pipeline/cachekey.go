package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"assetforge/internal/domain"
)

// BuildKey derives a deterministic cache key from the semantic request
// fields. Each field is length-prefixed before hashing so that no shuffling
// of content across field boundaries can produce a collision.
func BuildKey(prompt, style, size, format string) string {
	h := sha256.New()
	for _, field := range []string{prompt, style, size, format} {
		fmt.Fprintf(h, "%d:", len(field))
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// KeyFor returns the cache key for a request: the caller's idempotency key
// verbatim when supplied, otherwise the content hash. A caller reusing an
// idempotency key with different semantic fields gets the first call's
// result; key semantics are theirs to manage.
func KeyFor(req domain.GenerationRequest) string {
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		return key
	}
	return BuildKey(req.Prompt, req.Style, req.Size, req.Format)
}
