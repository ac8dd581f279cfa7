package ports

import (
	"context"
	"io"

	"go.trai.ch/recon/internal/core/domain"
)

// Toolchain compiles a generated unit into a module loaded in this process.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// CompileAndLink compiles unit, runs it, and returns the loaded module
	// plus a serialized form that Load accepts later.
	CompileAndLink(ctx context.Context, name string, unit []byte) (*domain.LoadedModule, []byte, error)

	// Load runs a serialized module produced by CompileAndLink.
	Load(ctx context.Context, name string, native []byte) (*domain.LoadedModule, error)
}

// NativeCompiler runs an external command over a generated unit.
type NativeCompiler interface {
	// Compile runs command with {unit} and {output} replaced.
	// Command output goes to stdout and stderr.
	Compile(ctx context.Context, command []string, unitPath, outputPath string, stdout, stderr io.Writer) error
}
