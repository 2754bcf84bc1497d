package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is the single-process ListingCache used when no Redis address
// is configured.
type MemoryCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	scopes   map[string]map[string]memoryEntry
	versions map[string]int64
	now      func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:      ttl,
		scopes:   make(map[string]map[string]memoryEntry),
		versions: make(map[string]int64),
		now:      time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, scope, key string) ([]byte, int64, bool, error) {
	c.mu.RLock()
	entry, ok := c.scopes[scope][key]
	version := c.versions[scope]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, version, false, nil
	}
	return entry.value, version, true, nil
}

func (c *MemoryCache) Set(_ context.Context, scope, key string, version int64, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[scope] != version {
		return nil
	}

	entries, ok := c.scopes[scope]
	if !ok {
		entries = make(map[string]memoryEntry)
		c.scopes[scope] = entries
	}
	entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, scopes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, scope := range scopes {
		c.versions[scope]++
		delete(c.scopes, scope)
	}
	return nil
}
