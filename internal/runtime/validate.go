package runtime

import (
	"sort"

	"github.com/arbored/weft/pkg/domain"
)

// Validate checks a compiled graph for structural soundness. It is a pure
// read of the graph and idempotent, so it can be re-run freely (the engine
// runs it once per Run; pkg/dsl runs it at Build).
//
// Checks, in order:
//  1. the entry node has no dependencies (it is the single source),
//  2. every node is reachable from the entry,
//  3. the graph is acyclic (Kahn's algorithm),
//  4. every node has a path to the End marker.
func Validate(g *domain.Graph) error {
	entry := g.Entry()
	if deps := g.Dependencies(entry); len(deps) > 0 {
		// An entry with unmet dependencies could never launch.
		return &domain.CycleError{Nodes: append([]string{entry}, deps...)}
	}

	if err := checkReachable(g); err != nil {
		return err
	}
	if err := checkAcyclic(g); err != nil {
		return err
	}
	return checkTerminates(g)
}

// ValidateOwnership additionally checks that declared output fields are
// pairwise disjoint across nodes, so no field can ever have two writers.
// Opt-in: nodes that declare nothing are exempt.
func ValidateOwnership(g *domain.Graph) error {
	producers := make(map[string][]string)
	for _, name := range g.Nodes() {
		for _, field := range g.Node(name).Produces {
			producers[field] = append(producers[field], name)
		}
	}

	fields := make([]string, 0, len(producers))
	for field := range producers {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if owners := producers[field]; len(owners) > 1 {
			return &domain.FieldConflictError{Field: field, Nodes: owners}
		}
	}
	return nil
}

func checkReachable(g *domain.Graph) error {
	visited := map[string]bool{g.Entry(): true}
	queue := []string{g.Entry()}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.Dependents(current) {
			if next == domain.End || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	for _, name := range g.Nodes() {
		if !visited[name] {
			return &domain.UnreachableNodeError{Node: name}
		}
	}
	return nil
}

func checkAcyclic(g *domain.Graph) error {
	indegree := make(map[string]int)
	for _, name := range g.Nodes() {
		indegree[name] = len(g.Dependencies(name))
	}

	// Kahn: peel nodes with no unmet dependencies. Whatever survives is
	// part of (or downstream of) a cycle.
	queue := make([]string, 0)
	for _, name := range g.Nodes() {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	ordered := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered++
		for _, next := range g.Dependents(current) {
			if next == domain.End {
				continue
			}
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if ordered == len(g.Nodes()) {
		return nil
	}

	var stuck []string
	for _, name := range g.Nodes() {
		if indegree[name] > 0 {
			stuck = append(stuck, name)
		}
	}
	sort.Strings(stuck)
	return &domain.CycleError{Nodes: stuck}
}

func checkTerminates(g *domain.Graph) error {
	// Reverse reachability from End: walk producer edges backwards.
	reaches := make(map[string]bool)
	var queue []string
	for _, name := range g.Nodes() {
		for _, next := range g.Dependents(name) {
			if next == domain.End {
				reaches[name] = true
				queue = append(queue, name)
			}
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependencies(current) {
			if !reaches[dep] {
				reaches[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	for _, name := range g.Nodes() {
		if !reaches[name] {
			return &domain.UnreachableEndError{Node: name}
		}
	}
	return nil
}
