package ports

import (
	"context"

	"go.trai.ch/recon/internal/core/domain"
)

// BuildFunc produces the artifact for one cache key.
type BuildFunc func(ctx context.Context) (domain.ArtifactRef, error)

// ArtifactCache maps cache keys to artifacts and runs at most one build per key.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ArtifactCache interface {
	// GetOrBuild returns the artifact stored for key, running build on a miss.
	GetOrBuild(ctx context.Context, key domain.CacheKey, module string, build BuildFunc) (domain.ArtifactRef, error)

	// Len returns the number of stored artifacts.
	Len() int

	// Reset drops every stored artifact.
	Reset()
}

// ArtifactStore persists generated artifacts below a lib directory.
type ArtifactStore interface {
	// Lookup returns the persisted artifact for plan.
	// The boolean is false on a miss, including an unreadable manifest.
	Lookup(ctx context.Context, libDir string, plan domain.BuildPlan) (domain.ArtifactRef, bool, error)

	// Save writes unit and native output atomically and records a manifest.
	Save(ctx context.Context, libDir string, plan domain.BuildPlan, out domain.BuildOutput) (domain.ArtifactRef, error)

	// ReadNative returns the native byproduct of ref.
	ReadNative(ctx context.Context, ref domain.ArtifactRef) ([]byte, error)

	// Clean removes every persisted artifact below libDir.
	Clean(ctx context.Context, libDir string) error
}
