package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/adapters/logger"
	"go.trai.ch/recon/internal/core/ports"
)

const NodeID graft.ID = "adapter.artifact_store"

func init() {
	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ArtifactStore, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(log)
		},
	})
}
