package models

import "time"

// RunRequest is the optional body of POST /api/runs.
type RunRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

// RunAccepted is returned when a manual run is queued.
type RunAccepted struct {
	Status  string    `json:"status"`
	NextRun time.Time `json:"next_run"`
}

// SchedulerStatus describes the scheduler and the last finished run.
type SchedulerStatus struct {
	Running bool       `json:"running"`
	NextRun time.Time  `json:"next_run"`
	LastRun *RunResult `json:"last_run,omitempty"`
}
