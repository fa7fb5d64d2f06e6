// Package cache provides a small in-process TTL cache. It backs the program
// catalogue read path, where listings are requested on every dashboard load
// and staleness of a few seconds is acceptable.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

func (e *entry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Cache is a concurrency-safe map with per-entry TTL and a background
// sweeper for expired entries.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	defaultTTL time.Duration
	stopSweep  chan struct{}
	stopOnce   sync.Once
}

func NewCache(defaultTTL time.Duration) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: defaultTTL,
		stopSweep:  make(chan struct{}),
	}
	go c.sweep(defaultTTL / 2)
	return c
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired() {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Invalidate removes entries whose key starts with prefix. An empty prefix
// removes only expired entries.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if prefix == "" {
			if e.expired() {
				delete(c.entries, key)
			}
			continue
		}
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Invalidate("")
		case <-c.stopSweep:
			return
		}
	}
}

// Stop terminates the sweeper goroutine.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopSweep)
	})
}

// CacheWithFallback populates entries from a loader function on miss.
type CacheWithFallback struct {
	cache *Cache
}

func NewCacheWithFallback(defaultTTL time.Duration) *CacheWithFallback {
	return &CacheWithFallback{cache: NewCache(defaultTTL)}
}

// GetOrSet returns the cached value for key, or loads and caches it. A
// loader error is returned without caching so the next call retries.
func (c *CacheWithFallback) GetOrSet(ctx context.Context, key string, loader func(context.Context) (interface{}, error), ttl time.Duration) (interface{}, error) {
	if value, ok := c.cache.Get(key); ok {
		return value, nil
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	if ttl > 0 {
		c.cache.SetWithTTL(key, value, ttl)
	} else {
		c.cache.Set(key, value)
	}
	return value, nil
}

func (c *CacheWithFallback) Invalidate(prefix string) {
	c.cache.Invalidate(prefix)
}

func (c *CacheWithFallback) Stop() {
	c.cache.Stop()
}
