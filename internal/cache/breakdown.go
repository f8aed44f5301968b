package cache

import (
	"strconv"

	"motocusto/internal/core"
)

// BreakdownCache memoises ComputeCostBreakdown. Keys carry the entry version
// and the configuration version, so editing either one misses naturally.
type BreakdownCache struct {
	store Cache[core.CostBreakdown]
}

func NewBreakdownCache(store Cache[core.CostBreakdown]) *BreakdownCache {
	return &BreakdownCache{store: store}
}

func BreakdownKey(e core.Entry, cfg core.CostConfiguration) string {
	return e.ID + ":" + strconv.FormatInt(e.Version, 10) + ":" + strconv.FormatInt(cfg.Version, 10)
}

// Breakdown returns the cached value or computes and stores it. Entries
// without an ID are never cached. A nil receiver always computes.
func (b *BreakdownCache) Breakdown(e core.Entry, cfg core.CostConfiguration) core.CostBreakdown {
	if b == nil || b.store == nil || e.ID == "" {
		return core.ComputeCostBreakdown(e, cfg)
	}
	key := BreakdownKey(e, cfg)
	if v, ok := b.store.Get(key); ok {
		return v
	}
	v := core.ComputeCostBreakdown(e, cfg)
	b.store.Set(key, v)
	return v
}

func (b *BreakdownCache) Close() {
	if b != nil && b.store != nil {
		b.store.Close()
	}
}
