package model

import "time"

// RunStatus represents the lifecycle state of a harvest run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded harvest run.
type Run struct {
	ID         string     `json:"id"`
	StartURL   string     `json:"start_url"`
	Status     RunStatus  `json:"status"`
	Pages      int        `json:"pages"`
	Records    int        `json:"records"`
	Failures   int        `json:"failures"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
