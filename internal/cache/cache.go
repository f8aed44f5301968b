// Package cache holds the in-process caches that sit above the pure cost
// model. Nothing in here is a source of truth.
package cache

import "time"

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Close releases background resources
	Close()
}

// Config sizes a cache by item count.
type Config struct {
	MaxItems int64
	TTL      time.Duration
}

// DefaultConfig returns the sizing used when nothing is configured.
func DefaultConfig() Config {
	return Config{MaxItems: 10_000, TTL: 30 * time.Minute}
}
