// Package cache keeps recently served snapshots in memory.
package cache

import (
	"sync"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// entry holds a cached snapshot with its creation timestamp.
type entry struct {
	snapshot  *models.AssetSnapshot
	createdAt time.Time
}

// Cache is a small in-memory cache of snapshots keyed by calendar day.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries snapshots, each for ttl.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Key is the calendar day of date.
func Key(date time.Time) string {
	return date.Format(time.DateOnly)
}

// Get returns the snapshot for date if it was cached less than ttl ago.
func (c *Cache) Get(date time.Time) (*models.AssetSnapshot, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[Key(date)]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.snapshot, true
}

// Set stores the snapshot for date. Expired entries go first; if the cache
// is still full an arbitrary entry is evicted.
func (c *Cache) Set(date time.Time, snap *models.AssetSnapshot) {
	if c.ttl <= 0 || c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		c.evictExpired()
	}
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[Key(date)] = &entry{snapshot: snap, createdAt: c.now()}
}

// Invalidate drops the entry for date.
func (c *Cache) Invalidate(date time.Time) {
	c.mu.Lock()
	delete(c.store, Key(date))
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// evictExpired must be called with mu held.
func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
