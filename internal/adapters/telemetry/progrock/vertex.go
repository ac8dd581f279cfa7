package progrock

import (
	"fmt"
	"io"

	"github.com/vito/progrock"
	"go.trai.ch/recon/internal/core/domain"
)

// Vertex is the progress record of one module build. Toolchain output and
// pipeline notes land on its streams.
type Vertex struct {
	rec *progrock.VertexRecorder
}

// Stdout receives toolchain output, including Starlark print calls.
func (v *Vertex) Stdout() io.Writer { return v.rec.Stdout() }

// Stderr receives toolchain diagnostics.
func (v *Vertex) Stderr() io.Writer { return v.rec.Stderr() }

// Log writes a leveled note. Warnings and errors go to the error stream.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	out := v.Stdout()
	if level >= domain.LogLevelWarn {
		out = v.Stderr()
	}
	_, _ = fmt.Fprintf(out, "[%s] %s\n", level, msg)
}

// Complete ends a build that ran the pipeline. A nil err marks success.
func (v *Vertex) Complete(err error) { v.rec.Done(err) }

// Cached ends a build satisfied by an existing artifact.
func (v *Vertex) Cached() { v.rec.Cached() }
