// Package cache stores rendered artifacts so unchanged documents are not
// drawn twice.
//
// Keys come from a [Keyer] and combine the document's content hash with
// the render options. [Fetch] wraps the usual get-or-build sequence and
// reports hits, misses and writes to the registered cache hooks.
//
//	key := keyer.ArtifactKey(cache.Hash(docJSON), cache.ArtifactKeyOpts{Format: "svg"})
//	svg, err := cache.Fetch(ctx, c, key, cache.KeyTypeArtifact, 0, func() ([]byte, error) {
//	    return render.Render(ctx, t, render.FormatSVG)
//	})
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/cutgraph/pkg/observability"
)

// Key types reported to the cache hooks.
const (
	KeyTypeArtifact = "artifact"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// Fetch returns the cached value for key, or calls build and stores its
// result. Cache read and write failures degrade to a rebuild; only build
// errors are returned.
func Fetch(ctx context.Context, c Cache, key, keyType string, ttl time.Duration, build func() ([]byte, error)) ([]byte, error) {
	hooks := observability.Cache()
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, keyType)
		return data, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	data, err := build()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}
