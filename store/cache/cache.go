// Package cache provides a small in-memory TTL cache used by the store to
// avoid re-reading hot rows (learner profiles) on every prompt assembly.
package cache

import (
	"sync"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	// DefaultTTL is the lifetime of an entry when none is given explicitly.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration
	// MaxItems caps the number of entries; inserting past the cap evicts the
	// entry closest to expiry.
	MaxItems int
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory TTL cache.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]item
	config Config
	done   chan struct{}
	once   sync.Once
}

// New creates a cache and starts its background sweeper.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}

	c := &Cache{
		items:  make(map[string]item),
		config: config,
		done:   make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.config.MaxItems {
		if _, exists := c.items[key]; !exists {
			c.evictOldestLocked()
		}
	}
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the cached value, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.value, true
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	for k, it := range c.items {
		if oldestKey == "" || it.expiresAt.Before(oldestExpiry) {
			oldestKey = k
			oldestExpiry = it.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, it := range c.items {
				if now.After(it.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
