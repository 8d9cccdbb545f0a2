package temporal

import (
	"sync"
	"time"
)

// Observer is notified on every store lookup.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// Store is a keyed TTL cache.
type Store[T any] interface {
	Get(key string) (T, bool)
	Set(key string, v T, ttl time.Duration)
	Invalidate(key string)
}

type entry[T any] struct {
	val T
	exp time.Time
}

// MemoryStore is an in-process Store. Entries do not survive a restart.
type MemoryStore[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	obs Observer
	now func() time.Time
}

// NewMemoryStore builds a store. obs and now may be nil.
func NewMemoryStore[T any](obs Observer, now func() time.Time) *MemoryStore[T] {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore[T]{m: make(map[string]entry[T]), obs: obs, now: now}
}

func (c *MemoryStore[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.exp) {
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return e.val, true
}

func (c *MemoryStore[T]) Set(key string, v T, ttl time.Duration) {
	c.mu.Lock()
	c.m[key] = entry[T]{val: v, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryStore[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
