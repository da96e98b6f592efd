// Package tilecache keeps decoded tile images by key and collapses concurrent loads of the same key
// into one fetch.
package tilecache

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"golang.org/x/sync/singleflight"
)

// FetchFunc produces the image for a key. It receives the context of the caller that started the flight.
type FetchFunc func(ctx context.Context) (*common.TileImage, error)

// Stats is a snapshot of the cache counters.
type Stats struct {
	// Entries is the number of cached images.
	Entries int
	// Hits counts loads answered from the cache.
	Hits uint64
	// Fetches counts fetch functions actually executed.
	Fetches uint64
	// Shared counts loads that attached to a fetch started by another caller.
	Shared uint64
	// Retries counts loads restarted after inheriting another caller's cancellation.
	Retries uint64
}

type cacheImpl struct {
	mu      *sync.RWMutex
	group   singleflight.Group
	entries map[string]*common.TileImage
	stats   Stats
}

// Cache stores completed tile images without eviction and deduplicates in-flight loads.
// Safe for concurrent use.
type Cache interface {
	// Load returns the cached image for key, or runs fetch to produce it. Concurrent loads of one key share
	// a single fetch. Failed fetches are not cached. A caller whose own context is still alive but who
	// received the cancellation of the caller that started the fetch retries once.
	//
	// Parameters:
	//   - ctx: the caller's context
	//   - key: the cache key, usually the tile URL
	//   - fetch: produces the image on a miss
	//
	// Returns:
	//   - *common.TileImage: the image
	//   - error: the fetch error, or ctx.Err() if ctx ended first
	Load(ctx context.Context, key string, fetch FetchFunc) (*common.TileImage, error)

	// Get returns a cached image without fetching.
	//
	// Parameters:
	//   - key: the cache key
	//
	// Returns:
	//   - *common.TileImage: the image
	//   - bool: false on a miss
	Get(key string) (*common.TileImage, bool)

	// Remove drops a cached image.
	//
	// Parameters:
	//   - key: the cache key
	Remove(key string)

	// Clear drops every cached image. In-flight loads still complete and store their result.
	Clear()

	// Len returns the number of cached images.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Stats returns a snapshot of the counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats
}

var _ Cache = &cacheImpl{}

// NewCache creates an empty cache.
//
// Returns:
//   - Cache: the cache
func NewCache() Cache {
	return &cacheImpl{
		mu:      &sync.RWMutex{},
		entries: make(map[string]*common.TileImage),
	}
}

func (c *cacheImpl) Load(ctx context.Context, key string, fetch FetchFunc) (*common.TileImage, error) {
	if img, ok := c.lookup(key); ok {
		return img, nil
	}

	for attempt := 0; ; attempt++ {
		ch := c.group.DoChan(key, func() (any, error) {
			c.mu.Lock()
			c.stats.Fetches++
			c.mu.Unlock()

			img, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.entries[key] = img
			c.mu.Unlock()
			return img, nil
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Shared {
				c.mu.Lock()
				c.stats.Shared++
				c.mu.Unlock()
			}
			if res.Err == nil {
				return res.Val.(*common.TileImage), nil
			}
			if attempt == 0 && common.IsCancelled(res.Err) && ctx.Err() == nil {
				c.mu.Lock()
				c.stats.Retries++
				c.mu.Unlock()
				common.Logger().Debug("tilecache: retrying after foreign cancellation", "key", key)
				if img, ok := c.lookup(key); ok {
					return img, nil
				}
				continue
			}
			return nil, res.Err
		}
	}
}

// lookup reads the cache and counts a hit.
func (c *cacheImpl) lookup(key string) (*common.TileImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.entries[key]
	if ok {
		c.stats.Hits++
	}
	return img, ok
}

func (c *cacheImpl) Get(key string) (*common.TileImage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.entries[key]
	return img, ok
}

func (c *cacheImpl) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *cacheImpl) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *cacheImpl) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *cacheImpl) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}
