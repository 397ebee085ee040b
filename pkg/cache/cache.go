// Package cache provides byte-oriented caching with pluggable
// backends: a file cache for CLI runs, a Redis cache for the web
// backend, and a null cache for disabling caching entirely.
//
// rostree caches rendered artifacts (SVG/PNG graphs) and serialized
// trees, not raw filesystem lookups; those are memoized in pkg/tree.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the expiration applied when a caller passes no
// explicit TTL policy. Workspace contents change on every build, so
// entries go stale quickly.
const DefaultTTL = 15 * time.Minute

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. A miss (absent or expired) is reported
	// via the bool, not as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. Zero TTL means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
