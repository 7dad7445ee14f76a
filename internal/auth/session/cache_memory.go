package session

import (
	"context"
	"sync"
	"time"

	"learnhub/pkg/platform/sentinel"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a single-process Cache for development and tests. Expired
// entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type MemoryCacheOption func(*MemoryCache)

func WithMemoryClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.liveLocked(key)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.expiry(ttl),
	}
	return nil
}

func (c *MemoryCache) Replace(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.liveLocked(key)
	if !ok {
		return false, nil
	}
	expiresAt := e.expiresAt
	if ttl != KeepTTL {
		expiresAt = c.expiry(ttl)
	}
	c.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: expiresAt,
	}
	return true, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// liveLocked returns the entry for key unless it has expired.
func (c *MemoryCache) liveLocked(key string) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// expiry maps a TTL to a deadline; non-positive TTLs never expire.
func (c *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}
