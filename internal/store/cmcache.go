// ============================================================================
// internal/store/cmcache.go
// Read-through cache for the class manager list
// ============================================================================

package store

import (
	"context"
	"sync"
	"time"

	"classflow/internal/shared"
)

// DefaultCMCacheTTL matches the refresh interval the dashboards were built
// around. The CM list changes rarely but is read on every class form render.
const DefaultCMCacheTTL = 5 * time.Minute

// CMCache decorates a DataAccess with a TTL cache on GetCMs. Writes to the
// CM collection invalidate the cache immediately; all other calls pass
// through untouched.
type CMCache struct {
	DataAccess

	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	cached    []shared.CMRecord
	fetchedAt time.Time
}

// NewCMCache wraps backend with a CM list cache using DefaultCMCacheTTL.
func NewCMCache(backend DataAccess) *CMCache {
	return &CMCache{
		DataAccess: backend,
		ttl:        DefaultCMCacheTTL,
		now:        time.Now,
	}
}

// GetCMs returns the cached list when it is fresh, otherwise fetches from the
// backend and caches the result. A backend failure never poisons the cache.
func (c *CMCache) GetCMs(ctx context.Context) ([]shared.CMRecord, error) {
	c.mu.Lock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		out := make([]shared.CMRecord, len(c.cached))
		copy(out, c.cached)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	cms, err := c.DataAccess.GetCMs(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = make([]shared.CMRecord, len(cms))
	copy(c.cached, cms)
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return cms, nil
}

func (c *CMCache) CreateCM(ctx context.Context, cm shared.CMRecord) (*shared.CMRecord, error) {
	created, err := c.DataAccess.CreateCM(ctx, cm)
	if err == nil {
		c.invalidate()
	}
	return created, err
}

func (c *CMCache) UpdateCM(ctx context.Context, id string, cm shared.CMRecord) (*shared.CMRecord, error) {
	updated, err := c.DataAccess.UpdateCM(ctx, id, cm)
	if err == nil {
		c.invalidate()
	}
	return updated, err
}

func (c *CMCache) DeleteCM(ctx context.Context, id string) error {
	err := c.DataAccess.DeleteCM(ctx, id)
	if err == nil {
		c.invalidate()
	}
	return err
}

func (c *CMCache) invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
