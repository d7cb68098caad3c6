package domain

import "time"

// GenerationRequest is the normalized input for a single pipeline run.
// RequestID is assigned per call for tracing and never participates in
// cache keying.
type GenerationRequest struct {
	Prompt          string
	Style           string
	Size            string
	Format          string
	Folder          string
	ExplicitAssetID string
	IdempotencyKey  string
	SkipCache       bool
	RequestID       string
}

// CachedAssetRecord is the durable index entry for one successful
// generation. A cache key is written once and never overwritten; later
// requests with the same key are served from cache.
type CachedAssetRecord struct {
	CacheKey  string
	Prompt    string
	Style     string
	Size      string
	Format    string
	AssetID   string
	SecureURL string
	Provider  string
	Metadata  map[string]any
	CreatedAt time.Time
}

// ProviderAttempt records the outcome of one provider in the failover
// chain. The full attempt log is surfaced only on total exhaustion.
type ProviderAttempt struct {
	Provider  string
	Success   bool
	ErrorCode ErrKind
	Retryable bool
}

// UploadResult is the normalized response from the asset store.
type UploadResult struct {
	AssetID   string
	SecureURL string
	ByteSize  int64
	Width     int
	Height    int
	Format    string
}

// GenerationResult is returned to the caller on success, whether served
// fresh or from either cache tier.
type GenerationResult struct {
	Success          bool
	Prompt           string
	Style            string
	Size             string
	Format           string
	SecureURL        string
	AssetID          string
	Provider         string
	ProviderMetadata map[string]any
	Cached           bool
	CacheKey         string
	DurationMS       int64
}
