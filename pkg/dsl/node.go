package dsl

import "github.com/arbored/weft/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// After declares that this node runs only after the named nodes complete.
func (n *NodeBuilder) After(deps ...string) *NodeBuilder {
	n.node.DependsOn = append(n.node.DependsOn, deps...)
	return n
}

// Produces declares the state fields this node writes. The declaration is
// informational unless the engine's ownership check is enabled, in which
// case no two nodes may claim the same field.
func (n *NodeBuilder) Produces(fields ...string) *NodeBuilder {
	n.node.Produces = append(n.node.Produces, fields...)
	return n
}

// Then declares a downstream edge and returns the parent builder, so
// linear chains read top to bottom.
func (n *NodeBuilder) Then(target string) *Builder {
	return n.builder.Edge(n.node.Name, target)
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
