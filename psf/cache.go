package psf

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/phil-mansfield/epsf/math/interpolate"
)

// cacheKey identifies a cached interpolator by the integer-truncated model
// position it was built for.
type cacheKey struct {
	ix, iy int
}

// interpCache is a bounded LRU cache of position-local interpolators, safe
// for concurrent use. A size of 0 disables caching: every lookup is a miss
// and rebuilds the interpolator.
type interpCache struct {
	mu    sync.Mutex
	lru   *simplelru.LRU[cacheKey, *interpolate.Surface]
	build func(ix, iy int) (*interpolate.Surface, error)

	hits, misses int
}

func newInterpCache(
	size int, build func(ix, iy int) (*interpolate.Surface, error),
) *interpCache {
	c := &interpCache{build: build}
	if size > 0 {
		// The error path only triggers for non-positive sizes.
		c.lru, _ = simplelru.NewLRU[cacheKey, *interpolate.Surface](size, nil)
	}
	return c
}

// getOrBuild returns the cached interpolator for key, building and
// inserting it on a miss.
func (c *interpCache) getOrBuild(
	key cacheKey,
) (*interpolate.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lru != nil {
		if surf, ok := c.lru.Get(key); ok {
			c.hits++
			return surf, nil
		}
	}

	c.misses++
	surf, err := c.build(key.ix, key.iy)
	if err != nil {
		return nil, err
	}
	if c.lru != nil {
		c.lru.Add(key, surf)
	}
	return surf, nil
}

// clear drops all cached interpolators and resets the hit and miss
// counters.
func (c *interpCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lru != nil {
		c.lru.Purge()
	}
	c.hits, c.misses = 0, 0
}

func (c *interpCache) stats() (hits, misses, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lru != nil {
		size = c.lru.Len()
	}
	return c.hits, c.misses, size
}
