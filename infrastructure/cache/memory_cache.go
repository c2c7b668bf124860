package cache

import (
	"context"
	"sync"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/utils"
)

// MemoryCache is a process-local ICache. Expired entries are dropped on access.
type MemoryCache struct {
	mu      sync.Mutex
	clock   utils.Clock
	entries map[string]model.CacheEntry
}

func NewMemoryCache(clock utils.Clock) *MemoryCache {
	return &MemoryCache{clock: clock, entries: make(map[string]model.CacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*model.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, entry model.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

func (c *MemoryCache) Pop(_ context.Context, key string) (*model.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.lookup(key)
	delete(c.entries, key)
	return e, nil
}

// lookup must be called with mu held.
func (c *MemoryCache) lookup(key string) *model.CacheEntry {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !e.ExpiresAt.IsZero() && !c.clock.Now().Before(e.ExpiresAt) {
		delete(c.entries, key)
		return nil
	}
	return &e
}

var _ repository.ICache = (*MemoryCache)(nil)
