package domain

import "context"

// End is the distinguished terminal marker. It is a valid edge target but
// never a runnable node: a run completes once every predecessor of End has
// merged its delta.
const End = "__end__"

// NodeFunc is the unit of work attached to a node. It receives the state
// snapshot taken at launch time and returns the fields it produces, or an
// error. Implementations must not retain or mutate the snapshot after
// returning, and should respect ctx for long-running calls.
type NodeFunc func(ctx context.Context, snap Snapshot) (Delta, error)

// Node is a named unit of work in a graph.
type Node struct {
	// Name uniquely identifies the node within its graph.
	Name string

	// Fn computes the node's contribution to the shared state.
	Fn NodeFunc

	// DependsOn lists the names of nodes that must complete (and merge)
	// before this node launches.
	DependsOn []string

	// Produces optionally declares the state fields this node writes.
	// Only consulted when the ownership check is enabled; the engine does
	// not restrict what Fn actually returns.
	Produces []string
}

// Edge is a dependency relation: To depends on From.
type Edge struct {
	From string
	To   string
}
