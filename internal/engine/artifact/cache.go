// Package artifact maps cache keys to built artifacts.
package artifact

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

var _ ports.ArtifactCache = (*Cache)(nil)

// Cache stores one artifact per key for the lifetime of the process.
// A build runs at most once per key; concurrent callers share its result.
type Cache struct {
	mu      sync.RWMutex
	entries map[domain.CacheKey]domain.ArtifactRef
	group   singleflight.Group
}

// NewCache creates a new empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[domain.CacheKey]domain.ArtifactRef)}
}

// GetOrBuild returns the artifact stored for key. On a miss it runs build
// once, stores the result and returns it. A failed build stores nothing.
// A waiter whose context ends returns ctx.Err() and leaves the build running.
func (c *Cache) GetOrBuild(
	ctx context.Context,
	key domain.CacheKey,
	module string,
	build ports.BuildFunc,
) (domain.ArtifactRef, error) {
	if ref, ok := c.lookup(key); ok {
		return ref, nil
	}

	for {
		var led bool
		ch := c.group.DoChan(key.String(), func() (any, error) {
			led = true
			// A flight that finished between the lookup and DoChan already stored it.
			if ref, ok := c.lookup(key); ok {
				return ref, nil
			}

			ref, err := build(ctx)
			if err != nil {
				return domain.ArtifactRef{}, AsBuildError(module, err)
			}

			c.mu.Lock()
			c.entries[key] = ref
			c.mu.Unlock()
			return ref, nil
		})

		select {
		case <-ctx.Done():
			return domain.ArtifactRef{}, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(domain.ArtifactRef), nil //nolint:forcetypeassert // flight only returns refs
			}
			// The build ran under another caller's context. If only that
			// caller gave up, start a flight of our own.
			if !led && isCancellation(res.Err) && ctx.Err() == nil {
				continue
			}
			return domain.ArtifactRef{}, res.Err
		}
	}
}

func (c *Cache) lookup(key domain.CacheKey) (domain.ArtifactRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.entries[key]
	return ref, ok
}

// Len returns the number of stored artifacts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every stored artifact. Closure memos are not affected.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// AsBuildError keeps the three failure kinds apart: resolution and cache
// errors pass through, everything else becomes a BuildError for module.
func AsBuildError(module string, err error) error {
	if errors.Is(err, domain.ErrResolution) ||
		errors.Is(err, domain.ErrCacheIO) ||
		errors.Is(err, domain.ErrBuild) ||
		isCancellation(err) {
		return err
	}
	return &domain.BuildError{Module: module, Cause: err}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
