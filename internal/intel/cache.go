package intel

import (
	"sync"
	"time"

	"github.com/V4T54L/alert-triage/internal/domain"
)

type cacheEntry struct {
	result    domain.IntelResult
	expiresAt time.Time
}

// Cache is a process-wide, time-based cache of intel results keyed by the
// indicator exactly as given. Expired entries are evicted lazily on lookup.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache whose entries live for ttl. A non-positive ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the live entry for indicator, if any.
func (c *Cache) Get(indicator string) (domain.IntelResult, bool) {
	c.mu.RLock()
	entry, found := c.entries[indicator]
	c.mu.RUnlock()

	if !found {
		return domain.IntelResult{}, false
	}
	if c.now().Before(entry.expiresAt) {
		return entry.result, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have refreshed the entry while we waited for the lock.
	entry, found = c.entries[indicator]
	if found && c.now().Before(entry.expiresAt) {
		return entry.result, true
	}
	delete(c.entries, indicator)
	return domain.IntelResult{}, false
}

// Set stores result for indicator until now+ttl, overwriting any previous entry.
func (c *Cache) Set(indicator string, result domain.IntelResult) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[indicator] = cacheEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
