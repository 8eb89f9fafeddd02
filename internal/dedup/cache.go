package dedup

import (
	"sync"
	"time"
)

// pruneAbove bounds the cache; pruning runs whenever an insert pushes
// the entry count past it.
const pruneAbove = 4096

type entry struct {
	alertID int64
	seenAt  time.Time
}

// Cache is the process-local recent-fingerprint set. It only saves a
// store round-trip on the hot duplicate path: correctness comes from the
// store lookup, so losing the cache across restarts is harmless.
type Cache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]entry
}

func NewCache(window time.Duration) *Cache {
	return &Cache{
		window:  window,
		entries: make(map[string]entry),
	}
}

// Lookup returns the cached alert ID for a fingerprint still inside the
// dedup window.
func (c *Cache) Lookup(fingerprint string, now time.Time) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	if !ok {
		return 0, false
	}
	if now.Sub(e.seenAt) > c.window {
		delete(c.entries, fingerprint)
		return 0, false
	}
	return e.alertID, true
}

// Remember records a fingerprint sighting.
func (c *Cache) Remember(fingerprint string, alertID int64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = entry{alertID: alertID, seenAt: now}
	if len(c.entries) > pruneAbove {
		for fp, e := range c.entries {
			if now.Sub(e.seenAt) > c.window {
				delete(c.entries, fp)
			}
		}
	}
}

// Forget drops a fingerprint, e.g. after its alert leaves the window.
func (c *Cache) Forget(fingerprint string) {
	c.mu.Lock()
	delete(c.entries, fingerprint)
	c.mu.Unlock()
}
