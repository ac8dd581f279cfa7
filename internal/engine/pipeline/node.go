package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/adapters/frontend"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/adapters/toolchain" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/engine/closure"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[ports.Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			frontend.ScannerNodeID,
			frontend.ParserNodeID,
			frontend.GeneratorsNodeID,
			closure.NodeID,
			toolchain.StarlarkNodeID,
			toolchain.ShellNodeID,
		},
		Run: func(ctx context.Context) (ports.Pipeline, error) {
			scanner, err := graft.Dep[ports.Scanner](ctx)
			if err != nil {
				return nil, err
			}

			parser, err := graft.Dep[ports.Parser](ctx)
			if err != nil {
				return nil, err
			}

			generators, err := graft.Dep[ports.GeneratorSet](ctx)
			if err != nil {
				return nil, err
			}

			engine, err := graft.Dep[ports.ClosureEngine](ctx)
			if err != nil {
				return nil, err
			}

			tc, err := graft.Dep[ports.Toolchain](ctx)
			if err != nil {
				return nil, err
			}

			native, err := graft.Dep[ports.NativeCompiler](ctx)
			if err != nil {
				return nil, err
			}

			return New(scanner, parser, generators, engine, tc, native), nil
		},
	})
}
