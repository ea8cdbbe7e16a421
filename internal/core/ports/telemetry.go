package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry is the entry point for recording workflow steps.
type Telemetry interface {
	// Record begins a named step. The returned context carries the step so
	// nested steps can attach to it.
	Record(ctx context.Context, name string) (context.Context, Vertex)
}

// Vertex represents one recorded step.
type Vertex interface {
	// Stdout returns the writer for progress output attached to the step.
	Stdout() io.Writer
	// Cached marks the step as satisfied without doing any work.
	Cached()
	// Complete finishes the step, recording err when non-nil.
	Complete(err error)
}

type vertexKey struct{}

// ContextWithVertex attaches the vertex to the context.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex attached to the context, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
