package closure

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/adapters/fs"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/adapters/resolver" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/recon/internal/core/ports"
)

// NodeID is the unique identifier for the closure engine Graft node.
const NodeID graft.ID = "engine.closure"

func init() {
	graft.Register(graft.Node[ports.ClosureEngine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.FingerprinterNodeID,
			resolver.NodeID,
		},
		Run: func(ctx context.Context) (ports.ClosureEngine, error) {
			fingerprints, err := graft.Dep[ports.Fingerprinter](ctx)
			if err != nil {
				return nil, err
			}

			res, err := graft.Dep[ports.DependencyResolver](ctx)
			if err != nil {
				return nil, err
			}

			return NewEngine(fingerprints, res), nil
		},
	})
}
