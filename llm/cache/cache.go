// Package cache provides the distributed key-value cache used in front of
// durable storage: chunk/document read caching, the content-addressed
// embedding cache, and assembled knowledge-base views.
package cache

import (
	"context"
	"time"
)

// Cache is a generic get/set/delete abstraction with per-entry TTL.
// Implementations must treat a missing key as (nil, false, nil), not an error.
type Cache interface {
	// Get returns the value for key, and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix.
	// Used to flush all cached state for a tenant.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Close releases any connections or resources.
	Close() error
}
