package domain

import (
	"context"
	"time"
)

// NodeStatus tracks a node through one run.
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusReady     NodeStatus = "ready"
	StatusRunning   NodeStatus = "running"
	StatusCompleted NodeStatus = "completed"
	StatusFailed    NodeStatus = "failed"
)

// RunEvent describes the start or end of a whole run.
type RunEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Graph     string    `json:"graph"`
	Duration  time.Duration
	Err       error
}

// NodeEvent describes the launch or completion of a single node.
type NodeEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	RunID     string     `json:"run_id"`
	Node      string     `json:"node"`
	Status    NodeStatus `json:"status"`
	Duration  time.Duration
	Err       error
}

// LifecycleHooks defines callbacks for engine observability. All fields
// are optional. Hooks run synchronously on the scheduler goroutine (run
// hooks) or the node's goroutine (node hooks), so they should return
// quickly.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnNodeStart  func(context.Context, *NodeEvent)
	OnNodeFinish func(context.Context, *NodeEvent)
	OnRunEnd     func(context.Context, *RunEvent)
}
