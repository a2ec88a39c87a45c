package ports

import (
	"context"
	"io"

	"go.trai.ch/anvil/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records units of work as vertices.
type Telemetry interface {
	// Record starts a new vertex and returns a context carrying it.
	Record(ctx context.Context, name string, opts ...VertexOption) (context.Context, Vertex)
	// Close flushes the recording session.
	Close() error
}

// Vertex is a unit of work being recorded.
type Vertex interface {
	// Stdout returns a writer for the vertex's output stream.
	Stdout() io.Writer
	// Stderr returns a writer for the vertex's error stream.
	Stderr() io.Writer
	// Log records a message associated with this vertex.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex as finished, successfully or not.
	Complete(err error)
	// Cached marks the vertex as satisfied from the cache.
	Cached()
}

// VertexConfig holds configuration for a recorded vertex.
type VertexConfig struct {
	// Inputs names the vertices this one depends on.
	Inputs []string
}

// VertexOption is a functional option for configuring a vertex.
type VertexOption func(*VertexConfig)

// WithInputs declares the vertices this one depends on.
func WithInputs(names ...string) VertexOption {
	return func(c *VertexConfig) {
		c.Inputs = append(c.Inputs, names...)
	}
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex carried by ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
