package ports

import (
	"context"

	"go.trai.ch/recon/internal/core/domain"
)

// BuildPlanner decides per module whether an artifact can be reused.
//
//go:generate go run go.uber.org/mock/mockgen -source=planner.go -destination=mocks/mock_planner.go -package=mocks
type BuildPlanner interface {
	// Plan resolves the closure of module and derives its cache key.
	Plan(ctx context.Context, module domain.Module, cfg domain.Configuration, variant domain.ArtifactVariant) (domain.BuildPlan, error)

	// PlanAndBuild returns the translation unit of module, building it on a miss.
	PlanAndBuild(ctx context.Context, module domain.Module, cfg domain.Configuration) (domain.ArtifactRef, error)

	// PlanAndLoad returns module loaded in this process with its symbol table.
	PlanAndLoad(ctx context.Context, module domain.Module, cfg domain.Configuration) (domain.ArtifactRef, error)

	// BuildAll builds modules in parallel. Failures are joined.
	BuildAll(ctx context.Context, modules []domain.Module, cfg domain.Configuration) ([]domain.ArtifactRef, error)

	// Invalidate drops every memoized closure and fingerprint.
	Invalidate()
}
