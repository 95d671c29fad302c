// Package domain contains the core types of the Weft engine: the shared
// state (snapshots and deltas), nodes, compiled graphs, lifecycle events and
// the error taxonomy. It has no dependencies on the runtime or any adapter,
// so it can be imported freely by both.
package domain
