package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned by run stores when a run ID cannot be found.
var ErrRunNotFound = errors.New("run not found")

// DuplicateNodeError indicates two nodes were registered under one name.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q is already registered", e.Name)
}

// UnknownNodeError indicates an edge or entry declaration referenced a
// node that was never registered.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.Name)
}

// CycleError indicates the graph is not acyclic. Nodes holds the names
// that could not be topologically ordered (the cycle members plus anything
// downstream of them).
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph contains a cycle involving: %s", strings.Join(e.Nodes, ", "))
}

// UnreachableEndError indicates a node with no path to the End marker;
// execution starting from it could never terminate the workflow.
type UnreachableEndError struct {
	Node string
}

func (e *UnreachableEndError) Error() string {
	return fmt.Sprintf("node %q has no path to END", e.Node)
}

// UnreachableNodeError indicates a node the entry node can never reach.
type UnreachableNodeError struct {
	Node string
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("node %q is not reachable from the entry node", e.Node)
}

// FieldConflictError indicates two nodes declare the same output field.
// Only reported when the ownership check is enabled.
type FieldConflictError struct {
	Field string
	Nodes []string
}

func (e *FieldConflictError) Error() string {
	return fmt.Sprintf("state field %q is produced by multiple nodes: %s", e.Field, strings.Join(e.Nodes, ", "))
}

// WorkflowError is returned by Run when a node fails (or the run is
// cancelled). Partial carries the state merged up to that point so the
// caller can inspect progress; it is never nil.
type WorkflowError struct {
	// Node is the name of the failed node. Empty when the run was
	// cancelled rather than failed by a node.
	Node string

	// Err is the underlying node error or context error.
	Err error

	// Partial is the state as merged when scheduling stopped.
	Partial Snapshot
}

func (e *WorkflowError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("workflow aborted: %v", e.Err)
	}
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }
