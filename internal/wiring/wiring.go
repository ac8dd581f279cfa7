// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/recon/internal/adapters/cas"
	_ "go.trai.ch/recon/internal/adapters/config"
	_ "go.trai.ch/recon/internal/adapters/frontend"
	_ "go.trai.ch/recon/internal/adapters/fs"
	_ "go.trai.ch/recon/internal/adapters/logger"
	_ "go.trai.ch/recon/internal/adapters/resolver"
	_ "go.trai.ch/recon/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/recon/internal/adapters/toolchain"
	_ "go.trai.ch/recon/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/recon/internal/app"
	_ "go.trai.ch/recon/internal/engine/artifact"
	_ "go.trai.ch/recon/internal/engine/closure"
	_ "go.trai.ch/recon/internal/engine/inline"
	_ "go.trai.ch/recon/internal/engine/pipeline"
	_ "go.trai.ch/recon/internal/engine/planner"
)
