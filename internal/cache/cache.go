// Package cache provides a small time-to-live map for search results.
// Entries expire a fixed duration after insertion and are evicted lazily
// when read. There is no size bound and nothing is persisted.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long search results stay valid
const DefaultTTL = 300 * time.Second

type entry[V any] struct {
	value   V
	created time.Time
}

// Cache maps keys to values that expire after a fixed TTL.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

// Option configures a Cache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a cache whose entries live for ttl
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value for key if present and not expired.
// An expired entry is removed as a side effect.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if c.now().Sub(e.created) >= c.ttl {
		delete(c.entries, key)
		return zero, false
	}

	return e.value, true
}

// Put stores value under key, replacing any previous entry
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, created: c.now()}
}

// Len returns the number of stored entries, expired ones included
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
