package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetforge/internal/domain"
)

// CacheRepositoryPG implements domain.CacheRepository using PostgreSQL.
type CacheRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCacheRepository constructs a new cache repository instance.
func NewCacheRepository(pool *pgxpool.Pool) *CacheRepositoryPG {
	return &CacheRepositoryPG{pool: pool}
}

// GetByKey returns the record for the cache key, or (nil, nil) when absent.
func (r *CacheRepositoryPG) GetByKey(ctx context.Context, key string) (*domain.CachedAssetRecord, error) {
	row := r.pool.QueryRow(ctx, `
SELECT cache_key, prompt, style, size, format, asset_id, secure_url, provider, metadata, created_at
FROM cached_assets
WHERE cache_key = $1;
`, key)

	var record domain.CachedAssetRecord
	var metadata []byte
	err := row.Scan(
		&record.CacheKey, &record.Prompt, &record.Style, &record.Size, &record.Format,
		&record.AssetID, &record.SecureURL, &record.Provider, &metadata, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache repo: get %s: %w", key, err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
			return nil, fmt.Errorf("cache repo: decode metadata for %s: %w", key, err)
		}
	}
	return &record, nil
}

// Put persists the record. Keys are write-once: a conflicting insert is a
// no-op so an existing entry is never overwritten.
func (r *CacheRepositoryPG) Put(ctx context.Context, record domain.CachedAssetRecord) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("cache repo: encode metadata: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO cached_assets (cache_key, prompt, style, size, format, asset_id, secure_url, provider, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (cache_key) DO NOTHING;
`,
		record.CacheKey, record.Prompt, record.Style, record.Size, record.Format,
		record.AssetID, record.SecureURL, record.Provider, metadata, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("cache repo: put %s: %w", record.CacheKey, err)
	}
	return nil
}

var _ domain.CacheRepository = (*CacheRepositoryPG)(nil)
