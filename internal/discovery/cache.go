package discovery

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a discovered endpoint stays fresh.
const DefaultCacheTTL = 30 * time.Second

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Cache holds a single discovered endpoint and when it was found.
// It is safe for concurrent use.
type Cache struct {
	mu           sync.RWMutex
	url          string
	discoveredAt time.Time
	ttl          time.Duration
	now          Clock
}

// NewCache creates an empty cache. A non-positive ttl uses DefaultCacheTTL;
// a nil clock uses time.Now.
func NewCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache{ttl: ttl, now: clock}
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached URL if one is present and younger than the TTL.
func (c *Cache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.url == "" {
		return "", false
	}
	if c.now().Sub(c.discoveredAt) >= c.ttl {
		return "", false
	}
	return c.url, true
}

// Peek returns the cached URL regardless of age, and when it was stored.
func (c *Cache) Peek() (string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url, c.discoveredAt
}

// Set replaces the cached entry, stamping it with the current time.
func (c *Cache) Set(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.url = url
	c.discoveredAt = c.now()
}

// Clear empties the cache so the next Get misses.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.url = ""
	c.discoveredAt = time.Time{}
}
