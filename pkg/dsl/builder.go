package dsl

import (
	"fmt"

	"github.com/arbored/weft/internal/runtime"
	"github.com/arbored/weft/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	name  string
	nodes map[string]*NodeBuilder
	order []string
	edges []domain.Edge
	entry string
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph. The first node added becomes the
// entry point unless Entry overrides it. If the node already exists, it
// returns the existing builder (the function is not replaced).
func (b *Builder) Add(name string, fn domain.NodeFunc) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			Name: name,
			Fn:   fn,
		},
		builder: b,
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	if b.entry == "" {
		b.entry = name
	}
	return nb
}

// Edge declares a dependency edge from one node to another. The target
// may be the End marker.
func (b *Builder) Edge(from, to string) *Builder {
	b.edges = append(b.edges, domain.Edge{From: from, To: to})
	return b
}

// Entry overrides the entry node (default: the first node added).
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Build compiles the graph and validates its structure. The returned graph
// is immutable; the builder can keep being used, but changes after Build
// do not affect graphs already built.
func (b *Builder) Build() (*domain.Graph, error) {
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("graph %q has no nodes", b.name)
	}

	nodes := make([]domain.Node, 0, len(b.nodes))
	for _, name := range b.order {
		nodes = append(nodes, b.nodes[name].node)
	}

	g, err := domain.NewGraph(b.name, nodes, b.edges, b.entry)
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph %q: %w", b.name, err)
	}
	if err := runtime.Validate(g); err != nil {
		return nil, fmt.Errorf("graph %q is invalid: %w", b.name, err)
	}
	return g, nil
}
