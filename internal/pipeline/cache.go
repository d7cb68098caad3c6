package pipeline

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"assetforge/internal/domain"
	"assetforge/internal/infra"
)

const (
	defaultCacheMaxEntries = 512
	defaultCacheTTL        = time.Hour
)

// volatileEntry holds a cached record along with the timestamp it was stored.
type volatileEntry struct {
	record   domain.CachedAssetRecord
	storedAt time.Time
}

// VolatileCache is the process-local fast tier: an LRU whose entries expire
// after a fixed TTL. It is a latency optimization only and is never the
// sole source of truth.
type VolatileCache struct {
	entries *lru.Cache[string, volatileEntry]
	ttl     time.Duration
}

// NewVolatileCache builds the fast tier. Zero values fall back to defaults.
func NewVolatileCache(maxEntries int, ttl time.Duration) (*VolatileCache, error) {
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	entries, err := lru.New[string, volatileEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &VolatileCache{entries: entries, ttl: ttl}, nil
}

// Get returns the record for key if present and fresh. Stale entries are
// evicted on read. A miss is silent.
func (c *VolatileCache) Get(key string) (domain.CachedAssetRecord, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return domain.CachedAssetRecord{}, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		c.entries.Remove(key)
		return domain.CachedAssetRecord{}, false
	}
	return entry.record, true
}

// Put stores the record under its cache key.
func (c *VolatileCache) Put(record domain.CachedAssetRecord) {
	c.entries.Add(record.CacheKey, volatileEntry{record: record, storedAt: time.Now()})
}

// TieredCache layers the volatile tier over the durable repository. The
// repository may be nil, in which case only the fast tier is used.
type TieredCache struct {
	volatile *VolatileCache
	durable  domain.CacheRepository
	logger   infra.Logger
}

func NewTieredCache(volatile *VolatileCache, durable domain.CacheRepository, logger infra.Logger) *TieredCache {
	return &TieredCache{volatile: volatile, durable: durable, logger: logger}
}

// Lookup checks the volatile tier first, then the durable tier. A durable
// hit is promoted into the volatile tier so later requests on this process
// take the fast path. Durable read errors degrade to a miss.
func (t *TieredCache) Lookup(ctx context.Context, key string) *domain.CachedAssetRecord {
	if record, ok := t.volatile.Get(key); ok {
		return &record
	}
	if t.durable == nil {
		return nil
	}
	record, err := t.durable.GetByKey(ctx, key)
	if err != nil {
		t.logger.Warn().Err(err).Str("cache_key", key).Msg("durable cache read failed, treating as miss")
		return nil
	}
	if record == nil {
		return nil
	}
	t.volatile.Put(*record)
	return record
}

// Store writes the record through both tiers, best-effort. The volatile
// tier is only written once the durable write succeeded, so a process
// restart cannot lose track of anything the fast tier serves. Failures are
// logged, never surfaced: the asset itself is already committed to the
// store.
func (t *TieredCache) Store(ctx context.Context, record domain.CachedAssetRecord) {
	if t.durable != nil {
		if err := t.durable.Put(ctx, record); err != nil {
			t.logger.Warn().Err(err).Str("cache_key", record.CacheKey).Msg("durable cache write failed, result not indexed")
			return
		}
	}
	t.volatile.Put(record)
}
