package inline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/engine/planner"
)

// NodeID is the unique identifier for the inline engine Graft node.
const NodeID graft.ID = "engine.inline"

func init() {
	graft.Register(graft.Node[*Engine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{planner.NodeID},
		Run: func(ctx context.Context) (*Engine, error) {
			p, err := graft.Dep[ports.BuildPlanner](ctx)
			if err != nil {
				return nil, err
			}
			return NewEngine(p), nil
		},
	})
}
