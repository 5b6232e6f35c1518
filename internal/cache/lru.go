package cache

import (
	"container/list"
	"sync"
)

// LRU is a bounded least-recently-used cache. It is the only shared mutable
// state in the detection path, so every operation takes the mutex; eviction
// happens under the same critical section as the insert that triggered it.
type LRU struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	mu       sync.Mutex

	hits      int64
	misses    int64
	evictions int64
}

type lruEntry struct {
	key   string
	value interface{}
}

// NewLRU creates a cache holding at most capacity entries. Capacity must be
// positive; a violation is a programming defect, not a runtime condition.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the value stored under key and refreshes its recency.
func (c *LRU) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*lruEntry).value, true
}

// Put stores value under key, evicting the least-recently-used entry first
// when the cache is full. It reports whether an eviction took place.
func (c *LRU) Put(key string, value interface{}) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = value
		c.order.MoveToFront(el)
		return false
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			entry := oldest.Value.(*lruEntry)
			delete(c.items, entry.key)
			c.order.Remove(oldest)
			c.evictions++
			evicted = true
		}
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, value: value})
	return evicted
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured maximum entry count.
func (c *LRU) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.order.Len(),
		Capacity:  c.capacity,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}
