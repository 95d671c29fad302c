// Package dsl provides a fluent, programmatic API for building workflow
// graphs in Go code. Build compiles and validates the graph, so a graph
// returned by Build is always runnable.
package dsl
