package overpass

import (
	"container/list"
	"sync"
)

// countCache is a bounded LRU for (coordinate, category) → count pairs.
// Counts are immutable per key within a run, so there is no invalidation;
// the bound exists only to cap memory in a long-running service.
type countCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
}

type countEntry struct {
	key   string
	count int
}

func newCountCache(maxEntries int) *countCache {
	return &countCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *countCache) get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*countEntry).count, true
}

func (c *countCache) put(key string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*countEntry).count = count
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&countEntry{key: key, count: count})

	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*countEntry).key)
		}
	}
}
