package frontend

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
)

const (
	ScannerNodeID    graft.ID = "adapter.frontend.scanner"
	ParserNodeID     graft.ID = "adapter.frontend.parser"
	GeneratorsNodeID graft.ID = "adapter.frontend.generators"
)

func init() {
	graft.Register(graft.Node[ports.Scanner]{
		ID:        ScannerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Scanner, error) {
			return NewScanner(), nil
		},
	})

	graft.Register(graft.Node[ports.Parser]{
		ID:        ParserNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Parser, error) {
			return NewParser(), nil
		},
	})

	graft.Register(graft.Node[ports.GeneratorSet]{
		ID:        GeneratorsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.GeneratorSet, error) {
			return ports.GeneratorSet{
				domain.VariantUnit:   NewCGenerator(),
				domain.VariantLoaded: NewStarlarkGenerator(),
			}, nil
		},
	})
}
