package domain

import "time"

// RunRecord is the persisted outcome of one workflow run.
type RunRecord struct {
	ID         string        `json:"id"`
	Graph      string        `json:"graph"`
	Final      Snapshot      `json:"final,omitempty"`
	FailedNode string        `json:"failed_node,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded reports whether the run completed without a failure.
func (r *RunRecord) Succeeded() bool { return r.Error == "" }
