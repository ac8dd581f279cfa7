// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/recon/internal/core/domain"
)

// Fingerprinter computes memoized content fingerprints for single files.
//
//go:generate go run go.uber.org/mock/mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Fingerprint returns the fingerprint of path, computing it on first use.
	// A missing file fails with domain.ErrModuleNotFound.
	Fingerprint(ctx context.Context, path string) (domain.Fingerprint, error)

	// InvalidateAll forgets every memoized fingerprint.
	InvalidateAll()
}

// ModuleExpander turns command line arguments into module paths.
type ModuleExpander interface {
	// Expand resolves files, directories and glob patterns relative to root.
	Expand(args []string, root string) ([]string, error)
}
