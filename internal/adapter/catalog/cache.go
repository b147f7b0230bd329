package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
)

// Fetcher loads a catalog by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Table, error)
}

// CachedCatalog wraps a Fetcher with a process-wide cache keyed by URL.
// Concurrent misses for the same URL share one download. Failures are not
// cached so a later report can retry.
type CachedCatalog struct {
	inner   Fetcher
	metrics *observability.Metrics

	mu      sync.RWMutex
	entries map[string]domain.Table
	group   singleflight.Group
}

// NewCachedCatalog creates a cache decorator around a fetcher.
func NewCachedCatalog(inner Fetcher, metrics *observability.Metrics) *CachedCatalog {
	return &CachedCatalog{
		inner:   inner,
		metrics: metrics,
		entries: make(map[string]domain.Table),
	}
}

// Fetch returns the cached catalog for url, downloading it on first use.
func (c *CachedCatalog) Fetch(ctx context.Context, url string) (domain.Table, error) {
	if t, ok := c.get(url); ok {
		c.metrics.CatalogCache.WithLabelValues("hit").Inc()
		return t, nil
	}
	c.metrics.CatalogCache.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(url, func() (any, error) {
		if t, ok := c.get(url); ok {
			return t, nil
		}
		t, err := c.inner.Fetch(ctx, url)
		if err != nil {
			return domain.Table{}, err
		}
		c.mu.Lock()
		c.entries[url] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return domain.Table{}, err
	}
	return v.(domain.Table), nil
}

func (c *CachedCatalog) get(url string) (domain.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[url]
	return t, ok
}
