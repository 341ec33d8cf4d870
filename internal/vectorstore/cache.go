package vectorstore

import (
	"container/list"
	"sync"
)

// cacheKey identifies one cached vector (spec.md §4.2: "bounded LRU keyed
// on (canonical_text, model_id)").
type cacheKey struct {
	text  string
	model string
}

type cacheEntry struct {
	key   cacheKey
	value []float32
}

// entryBytes estimates an entry's resident size: the two key strings plus
// four bytes per float32, close enough for a byte-budget eviction policy.
func entryBytes(e *cacheEntry) int64 {
	return int64(len(e.key.text)+len(e.key.model)) + int64(len(e.value))*4
}

// Cache is a bounded-by-bytes LRU mapping (canonical text, embedding
// model) to a vector. Every method, Get included, takes the same
// exclusive sync.Mutex, since a hit moves its entry to the front of the
// LRU list; concurrent reads are serialized rather than run in parallel.
type Cache struct {
	mu       sync.Mutex
	maxBytes int64
	curBytes int64
	ll       *list.List
	items    map[cacheKey]*list.Element
}

// NewCache creates an empty cache bounded to maxBytes of estimated vector
// storage. maxBytes <= 0 disables eviction (used in tests).
func NewCache(maxBytes int64) *Cache {
	return &Cache{
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[cacheKey]*list.Element),
	}
}

// Get returns the cached vector for (text, model), promoting it to
// most-recently-used on a hit.
func (c *Cache) Get(text, modelID string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{text: text, model: modelID}
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// Put inserts or replaces the vector for (text, model), evicting
// least-recently-used entries until the cache fits within maxBytes.
func (c *Cache) Put(text, modelID string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{text: text, model: modelID}
	if el, ok := c.items[key]; ok {
		c.curBytes -= entryBytes(el.Value.(*cacheEntry))
		c.ll.Remove(el)
		delete(c.items, key)
	}

	entry := &cacheEntry{key: key, value: vector}
	el := c.ll.PushFront(entry)
	c.items[key] = el
	c.curBytes += entryBytes(entry)

	c.evict()
}

func (c *Cache) evict() {
	if c.maxBytes <= 0 {
		return
	}
	for c.curBytes > c.maxBytes {
		back := c.ll.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*cacheEntry)
		c.curBytes -= entryBytes(entry)
		c.ll.Remove(back)
		delete(c.items, entry.key)
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Bytes reports the current estimated byte footprint.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}
