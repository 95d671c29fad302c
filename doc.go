/*
Package weft is a concurrent workflow engine for directed acyclic graphs of
state-transforming nodes.

A workflow is a named graph of nodes. Each node is a plain Go function that
receives an immutable snapshot of the shared state and returns a delta of
fields to merge back. The engine resolves the dependency structure, runs
every independent branch concurrently, and finishes when all paths reach
the End marker. Shared state converges through atomic merges, so nodes
never coordinate with each other directly.

# Key Features

  - Concurrent by structure: branches with no dependency between them run
    in parallel automatically, no goroutine code in node functions.
  - Snapshot isolation: a node sees the state as of its launch; sibling
    writes never leak into a running node.
  - Fail-fast with full accounting: the first node error stops scheduling,
    in-flight work drains, and the error carries the partial state.
  - Validated up front: cycles, unreachable nodes, and dead ends are
    rejected before any node runs.

# Usage

Build a graph with the fluent builder and run it:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/arbored/weft"
		"github.com/arbored/weft/pkg/dsl"
	)

	func main() {
		b := dsl.New("greeting")
		b.Add("hello", func(ctx context.Context, snap weft.Snapshot) (weft.Delta, error) {
			return weft.Delta{"message": "hello, " + snap["name"].(string)}, nil
		})
		b.Edge("hello", weft.End)

		g, err := b.Build()
		if err != nil {
			log.Fatal(err)
		}

		final, err := weft.New().Run(context.Background(), g, map[string]any{"name": "world"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(final["message"])
	}
*/
package weft
