package fatigue

import (
	"sync"
	"time"

	"barberhub/internal/models"
)

// Guard tracks per tenant+category alert creation frequency over a
// rolling window. It is a process-local optimization over the durable
// store: the engine seeds missing counters from store counts, so a cold
// start only costs one extra query per tenant+category.
type Guard struct {
	window time.Duration

	mu     sync.Mutex
	events map[string][]time.Time
}

func NewGuard(window time.Duration) *Guard {
	return &Guard{
		window: window,
		events: make(map[string][]time.Time),
	}
}

func key(tenantID string, category models.AlertCategory) string {
	return tenantID + "|" + string(category)
}

// Record notes an alert creation for the tenant+category.
func (g *Guard) Record(tenantID string, category models.AlertCategory, at time.Time) {
	k := key(tenantID, category)
	g.mu.Lock()
	g.events[k] = append(g.prune(g.events[k], at), at)
	g.mu.Unlock()
}

// Seed replaces the counter with count synthetic in-window events, used
// to rebuild state from the store after a restart. It never shrinks a
// counter that already tracks more events.
func (g *Guard) Seed(tenantID string, category models.AlertCategory, count int, now time.Time) {
	k := key(tenantID, category)
	g.mu.Lock()
	defer g.mu.Unlock()
	existing := g.prune(g.events[k], now)
	if len(existing) >= count {
		g.events[k] = existing
		return
	}
	events := make([]time.Time, count)
	for i := range events {
		events[i] = now
	}
	g.events[k] = events
}

// Count returns the number of creations inside the trailing window.
func (g *Guard) Count(tenantID string, category models.AlertCategory, now time.Time) int {
	k := key(tenantID, category)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events[k] = g.prune(g.events[k], now)
	return len(g.events[k])
}

// Exceeds reports whether creating one more alert would go beyond the
// daily cap.
func (g *Guard) Exceeds(tenantID string, category models.AlertCategory, now time.Time, cap int) bool {
	if cap <= 0 {
		return false
	}
	return g.Count(tenantID, category, now) >= cap
}

// prune drops events older than the window. An event exactly one
// window old still counts, matching the dedup cache boundary.
func (g *Guard) prune(events []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-g.window)
	kept := events[:0]
	for _, t := range events {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
