package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/engine/closure"
	"go.trai.ch/recon/internal/engine/inline"
	"go.trai.ch/recon/internal/engine/planner"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			planner.NodeID,
			inline.NodeID,
			closure.NodeID,
			fs.ExpanderNodeID,
			cas.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	plan, err := graft.Dep[ports.BuildPlanner](ctx)
	if err != nil {
		return nil, err
	}

	inlineEngine, err := graft.Dep[*inline.Engine](ctx)
	if err != nil {
		return nil, err
	}

	engine, err := graft.Dep[ports.ClosureEngine](ctx)
	if err != nil {
		return nil, err
	}

	expander, err := graft.Dep[ports.ModuleExpander](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.ArtifactStore](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, plan, inlineEngine, engine, expander, store, w, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:       app,
		Logger:    log,
		Telemetry: telemetry,
	}, nil
}
