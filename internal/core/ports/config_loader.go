package ports

import "go.trai.ch/recon/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads recon.yaml from the given working directory.
	// A missing file yields domain.DefaultConfiguration.
	Load(cwd string) (domain.Configuration, error)
}
