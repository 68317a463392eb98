package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultComputeTimeout bounds one detached crawl behind GetOrCompute.
const DefaultComputeTimeout = 2 * time.Minute

// Cache memoizes crawled product sets by exact URL. Entries never expire.
// Concurrent misses for the same URL share a single computation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]Product
	group   singleflight.Group

	computeTimeout time.Duration
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries:        make(map[string][]Product),
		computeTimeout: DefaultComputeTimeout,
	}
}

// Get returns a copy of the cached product set for url.
func (c *Cache) Get(url string) ([]Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	products, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	return CloneProducts(products), true
}

// GetOrCompute returns the cached set for url, or runs compute, stores its
// result and returns it. Failed computations are not cached. The boolean
// reports whether the value came from the cache.
//
// compute runs detached from any single caller's cancellation, bounded by
// ComputeTimeout, so one caller giving up does not fail the others waiting on
// the same URL. Each caller still returns as soon as its own ctx is done.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	url string,
	compute func(ctx context.Context) ([]Product, error),
) ([]Product, bool, error) {
	if products, ok := c.Get(url); ok {
		return products, true, nil
	}
	computed := false
	ch := c.group.DoChan(url, func() (any, error) {
		// Another caller may have stored the entry between Get and DoChan.
		c.mu.RLock()
		existing, ok := c.entries[url]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		products, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		stored := CloneProducts(products)
		c.mu.Lock()
		c.entries[url] = stored
		c.mu.Unlock()
		computed = true
		return stored, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return CloneProducts(res.Val.([]Product)), !computed, nil
	}
}

// Len reports how many URLs are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
