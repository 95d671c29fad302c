// Package runtime contains the scheduler at the heart of Weft: it drives a
// validated graph to completion against a per-run state store, launching
// every ready node concurrently and merging results as they land.
package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/arbored/weft/pkg/domain"
	"github.com/arbored/weft/pkg/state"
	"github.com/google/uuid"
)

// Engine executes graphs. It holds no per-run state, so a single Engine is
// safe for concurrent Run calls.
type Engine struct {
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	maxConcurrent  int
	ownershipCheck bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger for scheduling events.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithMaxConcurrent caps how many nodes run at once. Zero (the default)
// means unlimited: every ready node launches immediately.
func WithMaxConcurrent(n int) EngineOption {
	return func(e *Engine) { e.maxConcurrent = n }
}

// WithOwnershipCheck makes validation reject graphs in which two nodes
// declare the same output field.
func WithOwnershipCheck(enabled bool) EngineOption {
	return func(e *Engine) { e.ownershipCheck = enabled }
}

// NewEngine creates an engine. By default it logs nowhere; inject a logger
// to see scheduling decisions.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// nodeResult carries one finished node back to the scheduler loop.
type nodeResult struct {
	name     string
	delta    domain.Delta
	err      error
	duration time.Duration
}

// Run drives the graph to completion against a fresh store seeded with
// initial. On success it returns the final snapshot. On the first node
// failure it stops launching, lets in-flight nodes finish (their work may
// have external side effects that cannot be abandoned mid-way), and
// returns a *domain.WorkflowError carrying the partial state. Context
// cancellation is handled the same way, with an empty failed-node name.
func (e *Engine) Run(ctx context.Context, g *domain.Graph, initial map[string]any) (domain.Snapshot, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	if e.ownershipCheck {
		if err := ValidateOwnership(g); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID, "graph", g.Name())
	started := time.Now()

	e.emitRunStart(ctx, runID, g)
	logger.Info("run started", "nodes", len(g.Nodes()), "entry", g.Entry())

	store := state.NewStore(initial)

	// In-degree per node; a node launches when its counter hits zero.
	indegree := make(map[string]int, len(g.Nodes()))
	for _, name := range g.Nodes() {
		indegree[name] = len(g.Dependencies(name))
	}

	results := make(chan nodeResult)
	ready := []string{g.Entry()}
	inflight := 0
	var failure *domain.WorkflowError

	launch := func(name string) {
		node := g.Node(name)
		snap := store.Snapshot()
		inflight++

		go func() {
			e.emitNodeStart(ctx, runID, name)
			nodeStart := time.Now()
			delta, err := node.Fn(ctx, snap)
			results <- nodeResult{
				name:     name,
				delta:    delta,
				err:      err,
				duration: time.Since(nodeStart),
			}
		}()
	}

	// canLaunch respects the optional concurrency cap.
	canLaunch := func() bool {
		return e.maxConcurrent <= 0 || inflight < e.maxConcurrent
	}

	for len(ready) > 0 || inflight > 0 {
		// Launch everything eligible. After a failure or cancellation we
		// stop starting new work and only drain what is already running.
		for failure == nil && ctx.Err() == nil && len(ready) > 0 && canLaunch() {
			next := ready[0]
			ready = ready[1:]
			logger.Debug("launching node", "node", next)
			launch(next)
		}
		if failure != nil || ctx.Err() != nil {
			ready = nil
		}
		if inflight == 0 {
			break
		}

		res := <-results
		inflight--

		if res.err != nil {
			e.emitNodeFinish(ctx, runID, res.name, domain.StatusFailed, res.duration, res.err)
			logger.Error("node failed", "node", res.name, "err", res.err, "duration", res.duration)
			if failure == nil {
				failure = &domain.WorkflowError{Node: res.name, Err: res.err}
			}
			continue
		}

		// A node that completed did its work; merge even if the run is
		// already doomed, so the partial state reflects everything that
		// actually happened.
		store.Merge(res.delta)
		e.emitNodeFinish(ctx, runID, res.name, domain.StatusCompleted, res.duration, nil)
		logger.Debug("node completed", "node", res.name, "fields", len(res.delta), "duration", res.duration)

		for _, dep := range g.Dependents(res.name) {
			if dep == domain.End {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if failure == nil && ctx.Err() != nil {
		failure = &domain.WorkflowError{Err: ctx.Err()}
	}

	elapsed := time.Since(started)
	if failure != nil {
		failure.Partial = store.Snapshot()
		e.emitRunEnd(ctx, runID, g, elapsed, failure)
		logger.Error("run failed", "failed_node", failure.Node, "err", failure.Err, "duration", elapsed)
		return nil, failure
	}

	final := store.Snapshot()
	e.emitRunEnd(ctx, runID, g, elapsed, nil)
	logger.Info("run completed", "fields", len(final), "duration", elapsed)
	return final, nil
}

func (e *Engine) emitRunStart(ctx context.Context, runID string, g *domain.Graph) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.hooks.OnRunStart(ctx, &domain.RunEvent{
		Timestamp: time.Now(),
		RunID:     runID,
		Graph:     g.Name(),
	})
}

func (e *Engine) emitRunEnd(ctx context.Context, runID string, g *domain.Graph, elapsed time.Duration, err error) {
	if e.hooks.OnRunEnd == nil {
		return
	}
	ev := &domain.RunEvent{
		Timestamp: time.Now(),
		RunID:     runID,
		Graph:     g.Name(),
		Duration:  elapsed,
	}
	if err != nil {
		ev.Err = err
	}
	e.hooks.OnRunEnd(ctx, ev)
}

func (e *Engine) emitNodeStart(ctx context.Context, runID, node string) {
	if e.hooks.OnNodeStart == nil {
		return
	}
	e.hooks.OnNodeStart(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		RunID:     runID,
		Node:      node,
		Status:    domain.StatusRunning,
	})
}

func (e *Engine) emitNodeFinish(ctx context.Context, runID, node string, status domain.NodeStatus, d time.Duration, err error) {
	if e.hooks.OnNodeFinish == nil {
		return
	}
	e.hooks.OnNodeFinish(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		RunID:     runID,
		Node:      node,
		Status:    status,
		Duration:  d,
		Err:       err,
	})
}
