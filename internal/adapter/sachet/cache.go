package sachet

import (
	"context"
	"sync"

	"github.com/couchcryptid/cap-alert-dispatch/internal/domain"
	"github.com/couchcryptid/cap-alert-dispatch/internal/observability"
)

// AreaLookup resolves the polygon footprint for a generic alert identifier.
type AreaLookup interface {
	FetchAlertArea(ctx context.Context, identifier string) (*domain.AlertArea, error)
}

// CachedAreaLookup wraps an AreaLookup with an in-memory LRU cache.
// Alert identifiers repeat on every fetch cycle while their footprints are
// effectively immutable, so a hit saves one upstream round trip per alert
// per cycle.
type CachedAreaLookup struct {
	inner   AreaLookup
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedAreaLookup creates a cache decorator around an area lookup.
func NewCachedAreaLookup(inner AreaLookup, maxEntries int, metrics *observability.Metrics) *CachedAreaLookup {
	return &CachedAreaLookup{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAreaLookup) FetchAlertArea(ctx context.Context, identifier string) (*domain.AlertArea, error) {
	if area, ok := c.cache.get(identifier); ok {
		c.metrics.AreaCache.WithLabelValues("hit").Inc()
		return area, nil
	}
	c.metrics.AreaCache.WithLabelValues("miss").Inc()

	area, err := c.inner.FetchAlertArea(ctx, identifier)
	if err != nil {
		c.metrics.AreaLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	if area == nil {
		// Not cached: an absent footprint may appear on a later cycle.
		c.metrics.AreaLookups.WithLabelValues("empty").Inc()
		return nil, nil
	}
	c.metrics.AreaLookups.WithLabelValues("success").Inc()
	c.cache.put(identifier, area)
	return area, nil
}

// lruCache is a simple thread-safe LRU cache for area lookup results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *domain.AlertArea
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*domain.AlertArea, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *domain.AlertArea) {
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
