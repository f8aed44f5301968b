package cache

import (
	"sync"
	"testing"
	"time"

	"motocusto/internal/core"
)

// mapCache is a synchronous Cache used to observe BreakdownCache behaviour.
type mapCache struct {
	mu   sync.Mutex
	data map[string]core.CostBreakdown
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string]core.CostBreakdown{}} }

func (m *mapCache) Get(key string) (core.CostBreakdown, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Set(key string, v core.CostBreakdown) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = v
}

func (m *mapCache) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *mapCache) Close() {}

func TestBreakdownKeyIncludesVersions(t *testing.T) {
	e := core.Entry{ID: "e1", Version: 3}
	cfg := core.CostConfiguration{Version: 7}
	if got := BreakdownKey(e, cfg); got != "e1:3:7" {
		t.Fatalf("BreakdownKey() = %q", got)
	}
}

func TestBreakdownCache_RecomputesOnConfigurationChange(t *testing.T) {
	store := newMapCache()
	bc := NewBreakdownCache(store)
	e := core.Entry{ID: "e1", Version: 1, OdometerEnd: 100, GrossEarnings: 200}

	cfg := core.CostConfiguration{Oil: core.MaintenanceItem{Price: 100, LifespanKm: 1000}, Version: 1}
	first := bc.Breakdown(e, cfg)
	if first.MaintenanceCost != 10 {
		t.Fatalf("maintenance = %v, want 10", first.MaintenanceCost)
	}
	_ = bc.Breakdown(e, cfg)
	if store.sets != 1 {
		t.Fatalf("expected a single computation, got %d sets", store.sets)
	}

	cfg.Oil.Price = 200
	cfg.Version = 2
	second := bc.Breakdown(e, cfg)
	if second.MaintenanceCost != 20 {
		t.Fatalf("stale breakdown after configuration change: %v", second.MaintenanceCost)
	}
}

func TestBreakdownCache_SkipsUnsavedEntries(t *testing.T) {
	store := newMapCache()
	bc := NewBreakdownCache(store)
	_ = bc.Breakdown(core.Entry{OdometerEnd: 5}, core.CostConfiguration{})
	if store.sets != 0 {
		t.Fatal("entries without an ID must not be cached")
	}

	var nilCache *BreakdownCache
	if got := nilCache.Breakdown(core.Entry{OdometerEnd: 5}, core.CostConfiguration{}); got.Distance != 5 {
		t.Fatalf("nil cache distance = %v", got.Distance)
	}
}

func TestRistretto_SetGetDelete(t *testing.T) {
	c, err := NewRistretto[string](Config{MaxItems: 100, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRistretto: %v", err)
	}
	defer c.Close()

	c.Set("k", "v")
	c.Wait()
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Delete")
	}
}
