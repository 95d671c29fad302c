package weft

import (
	"context"
	"io"
	"log/slog"

	"github.com/arbored/weft/internal/runtime"
	"github.com/arbored/weft/pkg/domain"
)

// Version is the library version, stamped into binaries and reported by
// the HTTP and MCP surfaces.
const Version = "0.3.1"

// End is the terminal marker. An edge pointing at End declares that the
// workflow is complete once its source node finishes.
const End = domain.End

// Re-exported domain types so simple consumers only import the root package.
type (
	Snapshot       = domain.Snapshot
	Delta          = domain.Delta
	Node           = domain.Node
	NodeFunc       = domain.NodeFunc
	Edge           = domain.Edge
	Graph          = domain.Graph
	LifecycleHooks = domain.LifecycleHooks
	RunEvent       = domain.RunEvent
	NodeEvent      = domain.NodeEvent
	WorkflowError  = domain.WorkflowError
)

// Engine is the high-level entry point for the Weft library. It wraps the
// internal scheduler and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	opts    []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxConcurrent caps how many nodes may run at once (default: unlimited).
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		e.opts = append(e.opts, runtime.WithMaxConcurrent(n))
	}
}

// WithOwnershipCheck enables the optional validation that rejects graphs in
// which two nodes declare the same output field.
func WithOwnershipCheck(enabled bool) Option {
	return func(e *Engine) {
		e.opts = append(e.opts, runtime.WithOwnershipCheck(enabled))
	}
}

// New initializes a new Weft Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to the runtime,
	// which would overwrite its default).
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.opts...)

	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng
}

// Run executes the graph to completion against a fresh state seeded with
// initial, and returns the final snapshot. On node failure or cancellation
// it returns a *domain.WorkflowError carrying the partial state.
func (e *Engine) Run(ctx context.Context, g *Graph, initial map[string]any) (Snapshot, error) {
	return e.runtime.Run(ctx, g, initial)
}

// Validate checks a graph for structural soundness without running it.
func Validate(g *Graph) error {
	return runtime.Validate(g)
}
