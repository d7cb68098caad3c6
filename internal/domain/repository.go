package domain

import "context"

// CacheRepository is the durable cache tier contract. GetByKey returns
// (nil, nil) when the key is absent; absence is never an error.
type CacheRepository interface {
	GetByKey(ctx context.Context, key string) (*CachedAssetRecord, error)
	Put(ctx context.Context, record CachedAssetRecord) error
}
