package service

import (
	"sync"
	"time"

	"github.com/eduportal/oferta-api/internal/models"
)

// DefaultFacetTTL bounds how long a computed facet set is considered fresh.
const DefaultFacetTTL = 5 * time.Minute

// FacetCache holds the last computed filter options with a time-to-live.
// It is process-local and mutated only by the search service. The clock is
// injected so tests control freshness without sleeping.
type FacetCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	value      *models.FilterOptions
	computedAt time.Time
}

// NewFacetCache constructs a cache with the given TTL. A nil clock falls
// back to wall time; a non-positive TTL takes the default.
func NewFacetCache(ttl time.Duration, now func() time.Time) *FacetCache {
	if ttl <= 0 {
		ttl = DefaultFacetTTL
	}
	if now == nil {
		now = time.Now
	}
	return &FacetCache{ttl: ttl, now: now}
}

// Get returns the cached options and whether they are still fresh. A stale
// value is returned with fresh=false so callers can decide to keep serving
// it when recomputation fails.
func (c *FacetCache) Get() (*models.FilterOptions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return nil, false
	}
	return c.value, c.now().Sub(c.computedAt) < c.ttl
}

// Put stores freshly computed options, restarting the TTL window.
func (c *FacetCache) Put(value *models.FilterOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.computedAt = c.now()
}

// Invalidate drops the cached value so the next read recomputes.
func (c *FacetCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.computedAt = time.Time{}
}
