// Package cache stores derived bytes keyed by content hash.
//
// The project loader uses a Cache to remember migrated documents: migrating
// a large legacy file twice yields the same bytes, so the second load is a
// single lookup keyed by [Hash] of the input. Backends:
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [LRUCache]: bounded in-process cache
//   - [NullCache]: caches nothing
//
// [Layered] puts an LRU in front of a file cache. [Scoped] namespaces keys
// so several users can share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and
	// unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
