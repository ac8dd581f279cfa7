package ports

import (
	"context"

	"go.trai.ch/recon/internal/core/domain"
)

// Pipeline turns one planned module into build output.
//
//go:generate go run go.uber.org/mock/mockgen -source=pipeline.go -destination=mocks/mock_pipeline.go -package=mocks
type Pipeline interface {
	// Run scans, parses and generates the module of plan for plan.Variant.
	// Diagnostics come back as *domain.Diagnostic.
	Run(ctx context.Context, plan domain.BuildPlan, cfg domain.Configuration) (domain.BuildOutput, error)
}
