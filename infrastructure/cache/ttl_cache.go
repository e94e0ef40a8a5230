package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"vod-catalog/infrastructure/metrics"
)

const (
	ItemCacheCapacity = 100
	ItemCacheTTL      = 5 * time.Minute
)

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// TTLCache is a bounded in-memory cache. Entries expire ttl after they were
// stored and are evicted oldest-inserted first when the cache is full.
type TTLCache[V any] struct {
	mu       sync.Mutex
	name     string
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    *list.List
	items    map[string]*list.Element
}

// NewTTLCache creates a cache. name labels the lookup metrics; now may be nil.
func NewTTLCache[V any](name string, capacity int, ttl time.Duration, now func() time.Time) *TTLCache[V] {
	if capacity <= 0 {
		capacity = ItemCacheCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &TTLCache[V]{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	el, ok := c.items[key]
	if !ok {
		metrics.RecordCacheLookup(c.name, "miss")
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.expired(e) {
		c.remove(el)
		metrics.RecordCacheLookup(c.name, "expired")
		return zero, false
	}
	metrics.RecordCacheLookup(c.name, "hit")
	return e.value, true
}

// Set stores value under key. Overwriting a key refreshes its timestamp and
// moves it to the back of the eviction order.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	for c.order.Len() >= c.capacity {
		c.remove(c.order.Front())
	}
	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, storedAt: c.now()})
}

func (c *TTLCache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// Len counts stored entries, including expired ones not yet read.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *TTLCache[V]) expired(e *entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl
}

func (c *TTLCache[V]) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry[V])
	delete(c.items, e.key)
}

// CreateKey builds "namespace:p1:p2", skipping empty params.
func CreateKey(namespace string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, namespace)
	for _, p := range params {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}
