// Package progrock records module builds on a progrock tape.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/recon/internal/core/ports"
)

// Recorder turns every planned module build into a progrock vertex.
type Recorder struct {
	sink progrock.Writer
	tape *progrock.Recorder
}

// New returns a Recorder writing to an in-memory tape.
func New() ports.Telemetry {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder returns a Recorder writing status updates to sink.
func NewRecorder(sink progrock.Writer) *Recorder {
	return &Recorder{sink: sink, tape: progrock.NewRecorder(sink)}
}

// Record opens the vertex for name, such as "unit /src/b.pyx", and attaches
// it to the returned context. The vertex digest derives from name, so a
// rebuild of the same module and variant reuses its vertex.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	vertex := &Vertex{rec: r.tape.Vertex(digest.FromString(name), name)}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close closes the sink when it supports closing.
func (r *Recorder) Close() error {
	closer, ok := r.sink.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
