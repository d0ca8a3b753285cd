// Package cache memoizes complete search responses for exact query-parameter
// signatures. Entries expire after a fixed TTL and the cache is bounded:
// when full, the oldest-inserted entry is evicted first. Eviction is
// insertion-order FIFO via an explicit key queue, not LRU-on-access.
package cache

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Total number of search result cache hits",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Total number of search result cache misses",
	})
	cacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_evictions_total",
		Help: "Total number of search result cache evictions",
	})
)

// Defaults for the result cache.
const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 1000
)

type entry struct {
	value      any
	insertedAt time.Time
	seq        uint64
}

// queued is one FIFO slot. The sequence number ties the slot to a specific
// insertion, so a slot left behind by an expiry-dropped entry cannot evict a
// later re-insertion of the same key.
type queued struct {
	key string
	seq uint64
}

// Counters is a point-in-time snapshot of cache observability counters.
type Counters struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (c Counters) HitRate() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}
	return float64(c.Hits) / float64(total)
}

// ResultCache is a bounded TTL cache for complete search responses.
// All methods are safe for concurrent use and never return errors.
type ResultCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	queue    []queued // insertion order; may hold slots already dropped
	seq      uint64
	capacity int
	ttl      time.Duration
	now      func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// New creates a result cache with the given capacity and TTL. Non-positive
// values fall back to the defaults.
func New(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		entries:  make(map[string]entry, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source (used by tests).
func (c *ResultCache) WithClock(now func() time.Time) *ResultCache {
	c.now = now
	return c
}

// Get returns the cached value for the key if present and fresh. An expired
// entry counts as a miss and is dropped.
func (c *ResultCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		cacheMissesTotal.Inc()
		return nil, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		// Stale: treat as a miss. The queue entry is skipped at eviction time.
		delete(c.entries, key)
		c.misses++
		cacheMissesTotal.Inc()
		return nil, false
	}

	c.hits++
	cacheHitsTotal.Inc()
	return e.value, true
}

// Put stores the value under the key. At capacity, the oldest-inserted live
// entry is evicted first.
func (c *ResultCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.entries[key]; exists {
		// Refresh in place; the key keeps its original queue position.
		c.entries[key] = entry{value: value, insertedAt: c.now(), seq: old.seq}
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.seq++
	c.entries[key] = entry{value: value, insertedAt: c.now(), seq: c.seq}
	c.queue = append(c.queue, queued{key: key, seq: c.seq})
}

// evictOldest pops queue slots until one live cache entry is removed. A slot
// whose sequence no longer matches the stored entry belongs to an earlier,
// already-dropped insertion and is skipped. Caller holds the lock.
func (c *ResultCache) evictOldest() {
	for len(c.queue) > 0 {
		oldest := c.queue[0]
		c.queue = c.queue[1:]
		if e, ok := c.entries[oldest.key]; ok && e.seq == oldest.seq {
			delete(c.entries, oldest.key)
			c.evictions++
			cacheEvictionsTotal.Inc()
			return
		}
	}
}

// Clear drops all entries. Counters are preserved.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry, c.capacity)
	c.queue = nil
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Counters returns a snapshot of the hit/miss/eviction counters.
func (c *ResultCache) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counters{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
}
