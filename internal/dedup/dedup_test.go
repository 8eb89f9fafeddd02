package dedup

import (
	"testing"
	"time"
)

func TestFingerprintStableAcrossKeyOrder(t *testing.T) {
	a := Fingerprint("tenant-1", "Revenue drop", map[string]interface{}{
		"revenueImpact": 450.0,
		"period":        "daily",
	})
	b := Fingerprint("tenant-1", "Revenue drop", map[string]interface{}{
		"period":        "daily",
		"revenueImpact": 450.0,
	})
	if a != b {
		t.Errorf("fingerprint should not depend on map iteration order")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestFingerprintDiscriminates(t *testing.T) {
	base := Fingerprint("tenant-1", "Revenue drop", map[string]interface{}{"revenueImpact": 450.0})

	if Fingerprint("tenant-2", "Revenue drop", map[string]interface{}{"revenueImpact": 450.0}) == base {
		t.Errorf("different tenants must not share a fingerprint")
	}
	if Fingerprint("tenant-1", "Revenue spike", map[string]interface{}{"revenueImpact": 450.0}) == base {
		t.Errorf("different titles must not share a fingerprint")
	}
	if Fingerprint("tenant-1", "Revenue drop", map[string]interface{}{"revenueImpact": 451.0}) == base {
		t.Errorf("different payloads must not share a fingerprint")
	}
}

func TestCacheLookupRespectsWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	c := NewCache(24 * time.Hour)
	c.Remember("fp-1", 42, now)

	id, ok := c.Lookup("fp-1", now.Add(time.Hour))
	if !ok || id != 42 {
		t.Fatalf("in-window lookup = (%d, %v), want (42, true)", id, ok)
	}

	if _, ok := c.Lookup("fp-1", now.Add(25*time.Hour)); ok {
		t.Errorf("lookup past the window should miss")
	}
	// Expired entries are evicted on lookup.
	if _, ok := c.Lookup("fp-1", now.Add(time.Hour)); ok {
		t.Errorf("expired entry should have been evicted")
	}
}

func TestCacheForget(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	c := NewCache(24 * time.Hour)
	c.Remember("fp-1", 42, now)
	c.Forget("fp-1")

	if _, ok := c.Lookup("fp-1", now); ok {
		t.Errorf("forgotten fingerprint should miss")
	}
}
