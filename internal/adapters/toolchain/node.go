package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/recon/internal/core/ports"
)

const (
	StarlarkNodeID graft.ID = "adapter.toolchain.starlark"
	ShellNodeID    graft.ID = "adapter.toolchain.shell"
)

func init() {
	graft.Register(graft.Node[ports.Toolchain]{
		ID:        StarlarkNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Toolchain, error) {
			return NewStarlark(), nil
		},
	})

	graft.Register(graft.Node[ports.NativeCompiler]{
		ID:        ShellNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.NativeCompiler, error) {
			return NewShell(), nil
		},
	})
}
