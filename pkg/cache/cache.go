// Package cache provides pluggable response caching for registry lookups.
//
// Backends share one interface: [FileCache] for local CLI usage,
// [RedisCache] for shared CI runners, and [NullCache] to disable caching.
// Values are opaque byte slices; callers handle their own serialization.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key with optional expiration.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss
	// (including an expired entry); the error reports backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Namespaced wraps a Cache, prefixing every key. Use it to keep entries from
// different sources (registration vs catalog documents) from colliding in a
// shared backend.
type Namespaced struct {
	inner  Cache
	prefix string
}

// Namespace creates a scoped view of inner with the given key prefix.
func Namespace(inner Cache, prefix string) *Namespaced {
	return &Namespaced{inner: inner, prefix: prefix}
}

// Get retrieves a value under the prefixed key.
func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

// Set stores a value under the prefixed key.
func (n *Namespaced) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, data, ttl)
}

// Delete removes the value under the prefixed key.
func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// Close closes the underlying cache.
func (n *Namespaced) Close() error {
	return n.inner.Close()
}

var _ Cache = (*Namespaced)(nil)
