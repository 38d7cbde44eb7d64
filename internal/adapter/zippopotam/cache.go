package zippopotam

import (
	"context"
	"sync"

	"github.com/couchcryptid/civic-score-service/internal/domain"
)

// CachedResolver wraps a GeoResolver with an in-memory LRU cache. ZIP
// centroids never move, so entries are valid for the process lifetime; the
// size bound only caps memory.
type CachedResolver struct {
	inner domain.GeoResolver
	cache *lruCache
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner domain.GeoResolver, maxEntries int) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, zip string) (float64, float64) {
	if coord, ok := c.cache.get(zip); ok {
		return coord.lat, coord.lon
	}
	lat, lon := c.inner.Resolve(ctx, zip)
	// The fallback coordinate is not cached so a transient lookup failure
	// can be retried on the next call.
	if lat != FallbackLat || lon != FallbackLon {
		c.cache.put(zip, coordinate{lat: lat, lon: lon})
	}
	return lat, lon
}

type coordinate struct {
	lat float64
	lon float64
}

// lruCache is a simple thread-safe LRU cache for resolved coordinates.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value coordinate
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return coordinate{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
