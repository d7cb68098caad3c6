package pipeline

import (
	"golang.org/x/sync/singleflight"

	"assetforge/internal/domain"
)

// Coordinator deduplicates overlapping executions that share a cache key:
// the first caller runs the work, concurrent callers with the same key
// attach to it and receive the same outcome. The registration is dropped
// as soon as the work settles, so a later non-overlapping request runs
// fresh; historical dedup is the cache's job.
type Coordinator struct {
	group singleflight.Group
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Do runs fn under the key, or joins an execution already in flight.
// The returned bool reports whether the result was shared with other callers.
func (c *Coordinator) Do(key string, fn func() (*domain.GenerationResult, error)) (*domain.GenerationResult, bool, error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, shared, err
	}
	result, _ := v.(*domain.GenerationResult)
	return result, shared, nil
}
