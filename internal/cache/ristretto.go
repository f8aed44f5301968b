package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Ristretto is a Cache backed by dgraph-io/ristretto. Every item costs 1, so
// MaxItems bounds the number of entries.
type Ristretto[T any] struct {
	c   *ristretto.Cache[string, T]
	ttl time.Duration
}

var _ Cache[int] = (*Ristretto[int])(nil)

func NewRistretto[T any](cfg Config) (*Ristretto[T], error) {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig().MaxItems
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: cfg.MaxItems * 10, // ~10x expected items
		MaxCost:     cfg.MaxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Ristretto[T]{c: c, ttl: cfg.TTL}, nil
}

func (r *Ristretto[T]) Get(key string) (T, bool) {
	return r.c.Get(key)
}

// Set is asynchronous; a Get right after Set may miss until Wait returns.
func (r *Ristretto[T]) Set(key string, data T) {
	if r.ttl > 0 {
		r.c.SetWithTTL(key, data, 1, r.ttl)
		return
	}
	r.c.Set(key, data, 1)
}

func (r *Ristretto[T]) Delete(key string) {
	r.c.Del(key)
}

// Wait blocks until buffered writes are applied.
func (r *Ristretto[T]) Wait() {
	r.c.Wait()
}

func (r *Ristretto[T]) Close() {
	r.c.Close()
}
