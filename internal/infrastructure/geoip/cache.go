package geoip

import (
	"sync"
	"time"

	"github.com/gedlingdental/cohort-go/internal/domain/geo"
)

// lookupCache is a bounded TTL cache of provider results keyed by IP. It only
// caches derived data from the external geo service, so it does not violate
// the engine's no-shared-state model.
type lookupCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int
}

type cacheEntry struct {
	location  geo.Location
	expiresAt time.Time
}

func newLookupCache(ttl time.Duration, maxSize int) *lookupCache {
	return &lookupCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func (c *lookupCache) get(ip string) (geo.Location, bool) {
	c.mu.RLock()
	entry, exists := c.entries[ip]
	c.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		return geo.Location{}, false
	}
	return entry.location, true
}

func (c *lookupCache) set(ip string, loc geo.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictExpiredLocked()
	}
	if len(c.entries) >= c.maxSize {
		// Still full after dropping expired entries: drop an arbitrary one
		// rather than grow without bound.
		for key := range c.entries {
			delete(c.entries, key)
			break
		}
	}

	c.entries[ip] = cacheEntry{
		location:  loc,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *lookupCache) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *lookupCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
