package planner

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/adapters/cas"                //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/adapters/toolchain"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/engine/artifact"
	"go.trai.ch/recon/internal/engine/closure"
	"go.trai.ch/recon/internal/engine/pipeline"
)

// NodeID is the unique identifier for the build planner Graft node.
const NodeID graft.ID = "engine.planner"

func init() {
	graft.Register(graft.Node[ports.BuildPlanner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			closure.NodeID,
			artifact.NodeID,
			cas.NodeID,
			pipeline.NodeID,
			toolchain.StarlarkNodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (ports.BuildPlanner, error) {
			engine, err := graft.Dep[ports.ClosureEngine](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[ports.ArtifactCache](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}

			pl, err := graft.Dep[ports.Pipeline](ctx)
			if err != nil {
				return nil, err
			}

			tc, err := graft.Dep[ports.Toolchain](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return New(engine, cache, store, pl, tc, telemetry), nil
		},
	})
}
