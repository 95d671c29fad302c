package domain

import "sort"

// Graph is a compiled, immutable workflow definition: nodes, dependency
// edges, one entry node and the implicit End marker. Construction happens
// once (normally via pkg/dsl); after NewGraph returns, the value is
// read-only and safe to share across concurrent runs.
type Graph struct {
	name       string
	nodes      map[string]*Node
	dependents map[string][]string // from -> sorted consumers (may include End)
	entry      string
}

// NewGraph assembles a graph from nodes, explicit edges and an entry name.
// Registry-level errors surface here, in declaration order:
// a duplicated node name yields DuplicateNodeError, an edge or entry
// referencing an unknown node yields UnknownNodeError. Structural checks
// (cycles, terminal reachability) are the validator's job and run before
// execution, not here.
func NewGraph(name string, nodes []Node, edges []Edge, entry string) (*Graph, error) {
	g := &Graph{
		name:       name,
		nodes:      make(map[string]*Node, len(nodes)),
		dependents: make(map[string][]string),
	}

	for i := range nodes {
		n := nodes[i]
		if _, exists := g.nodes[n.Name]; exists {
			return nil, &DuplicateNodeError{Name: n.Name}
		}
		// Copy dependency slice so callers can't mutate the graph later.
		n.DependsOn = append([]string(nil), n.DependsOn...)
		n.Produces = append([]string(nil), n.Produces...)
		g.nodes[n.Name] = &n
	}

	// Node-declared dependencies are just edges written from the consumer's
	// point of view. Normalize both forms into the same adjacency.
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return nil, &UnknownNodeError{Name: dep}
			}
			g.dependents[dep] = append(g.dependents[dep], n.Name)
		}
	}
	for _, e := range edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, &UnknownNodeError{Name: e.From}
		}
		if e.To != End {
			to, ok := g.nodes[e.To]
			if !ok {
				return nil, &UnknownNodeError{Name: e.To}
			}
			to.DependsOn = append(to.DependsOn, e.From)
		}
		g.dependents[e.From] = append(g.dependents[e.From], e.To)
	}

	if entry == "" {
		return nil, &UnknownNodeError{Name: "(entry not set)"}
	}
	if _, ok := g.nodes[entry]; !ok {
		return nil, &UnknownNodeError{Name: entry}
	}
	g.entry = entry

	// Declaring the same dependency via After and via Edge is harmless;
	// the in-degree bookkeeping must still count it once.
	for from := range g.dependents {
		g.dependents[from] = dedupeSorted(g.dependents[from])
	}
	for _, n := range g.nodes {
		n.DependsOn = dedupeSorted(n.DependsOn)
	}

	return g, nil
}

func dedupeSorted(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	for i, name := range names {
		if i == 0 || name != names[i-1] {
			out = append(out, name)
		}
	}
	return out
}

// Name returns the graph's descriptive name (may be empty).
func (g *Graph) Name() string { return g.name }

// Entry returns the entry node name.
func (g *Graph) Entry() string { return g.entry }

// Node returns the named node, or nil if absent.
func (g *Graph) Node(name string) *Node { return g.nodes[name] }

// Nodes returns all node names in sorted order.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependents returns the consumers of the named node, End included.
func (g *Graph) Dependents(name string) []string { return g.dependents[name] }

// Dependencies returns the names the given node depends on.
func (g *Graph) Dependencies(name string) []string {
	n := g.nodes[name]
	if n == nil {
		return nil
	}
	return n.DependsOn
}
