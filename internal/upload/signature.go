package upload

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// canonicalize serializes params as k=v pairs joined by &, with keys in
// lexicographic order. Empty values are skipped so optional parameters do
// not disturb the signature.
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// Signature computes the hex digest over the canonical parameter string
// concatenated with the shared secret. The secret itself is never sent.
func Signature(params map[string]string, secret string) string {
	sum := sha1.Sum([]byte(canonicalize(params) + secret))
	return hex.EncodeToString(sum[:])
}
