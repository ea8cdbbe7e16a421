package progrock

import (
	"io"

	"github.com/vito/progrock"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder
}

// Stdout returns a writer to capture progress output for the step.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Cached marks the step as satisfied without doing any work.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}

// Complete marks the step as finished, recording err when non-nil.
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
}
