// Package cache provides byte-level caching backends for registry metadata.
//
// Registry clients in [github.com/quipucords/chaski/pkg/integrations] cache
// decoded JSON responses (crate metadata) through the [Cache] interface so
// repeated provenance runs do not hammer crates.io. Three backends exist:
//
//   - [FileCache]: one JSON file per key under ~/.cache/chaski/http
//   - [RedisCache]: a shared Redis instance, for CI runners that share metadata
//   - [NullCache]: caching disabled (--no-cache, tests)
//
// Source archives are NOT stored here; they live in the on-disk archive
// cache of [github.com/quipucords/chaski/pkg/archive].
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with an optional TTL.
// A TTL of zero means the entry never expires.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
