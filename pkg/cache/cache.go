package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxSize bounds a cache whose configured size is missing or invalid.
const DefaultMaxSize = 2048

type entry struct {
	key string
	v   interface{}
	exp time.Time // zero means never expires
}

// Cache is a bounded key/value store with per-entry TTL and LRU eviction.
// One mutex covers every read and write, including the recency reorder, so
// it is safe for concurrent use without external locking.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ll      *list.List // front = most recently used
	items   map[string]*list.Element

	onHit  func(key string)
	onMiss func(key string)
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSize sets the entry bound. Values <= 0 fall back to DefaultMaxSize.
func WithMaxSize(n int) Option {
	return func(c *Cache) {
		c.maxSize = n
	}
}

// WithObserver installs hit/miss callbacks, typically metrics counters.
// Either callback may be nil.
func WithObserver(onHit, onMiss func(key string)) Option {
	return func(c *Cache) {
		c.onHit = onHit
		c.onMiss = onMiss
	}
}

// New creates a cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		maxSize: DefaultMaxSize,
		ll:      list.New(),
		items:   make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxSize <= 0 {
		c.maxSize = DefaultMaxSize
	}
	return c
}

// Get returns the value for key, or (nil, false) if the key was never set,
// expired, or evicted. A hit promotes the key to most-recently-used. Expired
// entries are removed lazily here rather than by a background sweeper.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		c.miss(key)
		return nil, false
	}
	e := el.Value.(*entry)
	if !e.exp.IsZero() && !time.Now().Before(e.exp) {
		c.ll.Remove(el)
		delete(c.items, key)
		c.mu.Unlock()
		c.miss(key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	// Copy the value while still holding the lock: Set mutates e.v in place
	// for existing keys, so reading it after Unlock would race.
	v := e.v
	c.mu.Unlock()
	c.hit(key)
	return v, true
}

// Set stores value under key with the given TTL and marks it
// most-recently-used. ttl <= 0 means the entry never expires. When the
// insert pushes the cache past its bound, least-recently-used entries are
// evicted one at a time until it fits.
func (c *Cache) Set(key string, v interface{}, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.v = v
		e.exp = exp
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&entry{key: key, v: v, exp: exp})
	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

// Delete removes keys if present.
func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if el, ok := c.items[key]; ok {
			c.ll.Remove(el)
			delete(c.items, key)
		}
	}
}

// Len returns the number of physically present entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) hit(key string) {
	if c.onHit != nil {
		c.onHit(key)
	}
}

func (c *Cache) miss(key string) {
	if c.onMiss != nil {
		c.onMiss(key)
	}
}
