package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-broker/internal/domain"
	"github.com/couchcryptid/weather-broker/internal/observability"
)

// TTLCache implements domain.CacheStore as a thread-safe LRU whose entries
// expire ttl after they were written.
type TTLCache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock
	metrics    *observability.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key       string
	value     domain.Snapshot
	expiresAt time.Time // zero means never
	prev      *entry
	next      *entry
}

// NewTTLCache creates a snapshot cache. A ttl <= 0 disables expiry; a nil
// clock uses real time.
func NewTTLCache(ttl time.Duration, maxEntries int, clock clockwork.Clock, metrics *observability.Metrics) *TTLCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &TTLCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		metrics:    metrics,
		entries:    make(map[string]*entry),
	}
}

// Get returns a copy of the cached snapshot if it exists and has not expired.
func (c *TTLCache) Get(key string) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.observe("miss")
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt) {
		c.removeEntry(e)
		c.observe("expired")
		return nil, false
	}
	c.moveToFront(e)
	c.observe("hit")
	return e.value.Clone(), true
}

// Set stores a copy of snap under key and restarts its TTL.
func (c *TTLCache) Set(key string, snap domain.Snapshot) {
	value := snap.Clone()
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.clock.Now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.removeEntry(c.tail)
	}
}

// Invalidate drops the entry for key, forcing the next Get to miss.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeEntry(e)
	}
}

// Len returns the number of stored entries, expired ones included until
// they are next touched.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (c *TTLCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *TTLCache) addToFront(e *entry) {
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

func (c *TTLCache) unlink(e *entry) {
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

func (c *TTLCache) removeEntry(e *entry) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.unlink(e)
}
