// Package cache provides the key/value backends used to persist placement
// state between generalization calls.
//
// Generalization is only stable if every call sees the placements of the
// call before it. The CLI keeps them on disk ([FileCache]), the HTTP server
// in memory ([MemoryCache]) or in Redis ([RedisCache]) when several
// instances share sessions. [NullCache] turns persistence off.
//
// Keys are produced by a [Keyer] so that multi-tenant hosts can isolate
// namespaces with [ScopedKeyer].
package cache

import (
	"context"
	"time"
)

// TTLState is how long placement state survives without being refreshed.
const TTLState = 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiration.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// StateKey returns the key under which the placement state of a named
	// scene is stored.
	StateKey(scene string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// StateKey implements [Keyer].
func (DefaultKeyer) StateKey(scene string) string {
	return "state:" + scene
}
