package artifact_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/engine/artifact"
	"go.trai.ch/zerr"
)

func refFor(key domain.CacheKey) domain.ArtifactRef {
	return domain.ArtifactRef{Key: key, Module: "/src/b.pyx", UnitPath: "/lib/units/" + key.String() + ".c"}
}

func TestCache_HitAndMiss(t *testing.T) {
	ctx := context.Background()
	c := artifact.NewCache()
	var builds int

	build := func(context.Context) (domain.ArtifactRef, error) {
		builds++
		return refFor(1), nil
	}

	first, err := c.GetOrBuild(ctx, 1, "/src/b.pyx", build)
	require.NoError(t, err)
	second, err := c.GetOrBuild(ctx, 1, "/src/b.pyx", build)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, c.Len())

	_, err = c.GetOrBuild(ctx, 2, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
		return refFor(2), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), "distinct keys never share an entry")

	c.Reset()
	assert.Equal(t, 0, c.Len())
	_, err = c.GetOrBuild(ctx, 1, "/src/b.pyx", build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestCache_FailureIsNotStored(t *testing.T) {
	ctx := context.Background()
	c := artifact.NewCache()
	diag := zerr.New("b.pyx:1:3: unexpected token")

	_, err := c.GetOrBuild(ctx, 7, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
		return domain.ArtifactRef{}, diag
	})
	require.ErrorIs(t, err, domain.ErrBuild)
	require.ErrorIs(t, err, diag)

	var be *domain.BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "/src/b.pyx", be.Module)
	assert.Equal(t, 0, c.Len())

	ref, err := c.GetOrBuild(ctx, 7, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
		return refFor(7), nil
	})
	require.NoError(t, err, "a corrected retry succeeds")
	assert.Equal(t, refFor(7), ref)
}

func TestCache_ErrorKindsPassThrough(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{
			name:     "resolution",
			err:      &domain.ResolutionError{Module: "/src/b.pyx", Reference: "a", Cause: domain.ErrDependencyNotFound},
			sentinel: domain.ErrResolution,
		},
		{
			name:     "cache io",
			err:      &domain.CacheIOError{Path: "/lib", Op: "write", Cause: errors.New("read-only file system")},
			sentinel: domain.ErrCacheIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := artifact.NewCache()
			_, err := c.GetOrBuild(context.Background(), 3, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
				return domain.ArtifactRef{}, tt.err
			})
			require.ErrorIs(t, err, tt.sentinel)
			assert.NotErrorIs(t, err, domain.ErrBuild)
			assert.Equal(t, tt.err, err)
		})
	}
}

func TestCache_ConcurrentCallersShareOneBuild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		c := artifact.NewCache()
		release := make(chan struct{})
		var builds atomic.Int32

		build := func(context.Context) (domain.ArtifactRef, error) {
			builds.Add(1)
			<-release
			return refFor(9), nil
		}

		const workers = 32
		refs := make([]domain.ArtifactRef, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Go(func() {
				ref, err := c.GetOrBuild(ctx, 9, "/src/b.pyx", build)
				assert.NoError(t, err)
				refs[i] = ref
			})
		}

		synctest.Wait()
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), builds.Load())
		for _, ref := range refs {
			assert.Equal(t, refFor(9), ref)
		}
	})
}

func TestCache_CancelledWaiter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := artifact.NewCache()
		release := make(chan struct{})

		go func() {
			_, err := c.GetOrBuild(context.Background(), 4, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
				<-release
				return refFor(4), nil
			})
			assert.NoError(t, err)
		}()
		synctest.Wait()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := c.GetOrBuild(ctx, 4, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
				t.Error("second build must not run")
				return domain.ArtifactRef{}, nil
			})
			done <- err
		}()
		synctest.Wait()

		cancel()
		require.ErrorIs(t, <-done, context.Canceled)

		close(release)
		synctest.Wait()
		assert.Equal(t, 1, c.Len(), "the flight still stores its result")
	})
}

func TestCache_LeaderCancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := artifact.NewCache()
		leaderCtx, cancelLeader := context.WithCancel(context.Background())

		leaderDone := make(chan error, 1)
		go func() {
			_, err := c.GetOrBuild(leaderCtx, 5, "/src/b.pyx", func(ctx context.Context) (domain.ArtifactRef, error) {
				<-ctx.Done()
				return domain.ArtifactRef{}, ctx.Err()
			})
			leaderDone <- err
		}()
		synctest.Wait()

		waiterDone := make(chan error, 1)
		var waiterRef domain.ArtifactRef
		go func() {
			ref, err := c.GetOrBuild(context.Background(), 5, "/src/b.pyx", func(context.Context) (domain.ArtifactRef, error) {
				return refFor(5), nil
			})
			waiterRef = ref
			waiterDone <- err
		}()
		synctest.Wait()

		cancelLeader()
		require.ErrorIs(t, <-leaderDone, context.Canceled)
		require.NoError(t, <-waiterDone, "a waiter with a live context builds on its own")
		assert.Equal(t, refFor(5), waiterRef)
	})
}
