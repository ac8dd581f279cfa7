package ports

import (
	"context"

	"go.trai.ch/recon/internal/core/domain"
)

// DependencyResolver discovers the direct structural dependencies of one file.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type DependencyResolver interface {
	// DirectDependencies pre-parses path and returns its direct dependency set
	// together with the typed edges that produced it.
	// It fails with *domain.ResolutionError when a referenced file is missing.
	DirectDependencies(ctx context.Context, path string, searchPath []string) (domain.DependencySet, []domain.DependencyEdge, error)
}

// ClosureEngine computes memoized transitive closures.
type ClosureEngine interface {
	// Closure returns every file reachable from path, path included.
	Closure(ctx context.Context, path string) (domain.DependencySet, error)

	// Edges returns the typed edges expanded from path so far.
	Edges(ctx context.Context, path string) ([]domain.DependencyEdge, error)

	// Cycles returns the import cycles reachable from path as "a -> b -> a".
	Cycles(ctx context.Context, path string) ([]string, error)

	// SetSearchPath changes the directories used to resolve references.
	// A different search path invalidates every memo.
	SetSearchPath(dirs []string)

	// InvalidateAll drops every memoized closure, edge list and fingerprint.
	InvalidateAll()

	// Fingerprinter returns the fingerprint cache the engine invalidates.
	Fingerprinter() Fingerprinter
}
