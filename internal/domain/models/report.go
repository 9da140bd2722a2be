package models

import "time"

// Report is the rendered email for one run.
type Report struct {
	RunID   string    `json:"run_id"`
	Date    time.Time `json:"date"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html"`
	Text    string    `json:"text"`
}

// RunState is a step of the daily pipeline.
type RunState string

const (
	StateStart           RunState = "start"
	StateAuthenticated   RunState = "authenticated"
	StatePositionsLoaded RunState = "positions_loaded"
	StateSummarized      RunState = "summarized"
	StateReportBuilt     RunState = "report_built"
	StateEmailSent       RunState = "email_sent"
	StateLoggedOut       RunState = "logged_out"
	StateDone            RunState = "done"
)

// Trigger says what started a run.
type Trigger string

const (
	TriggerSchedule  Trigger = "schedule"
	TriggerImmediate Trigger = "immediate"
	TriggerManual    Trigger = "manual"
)

// RunResult records what happened during one pipeline execution.
// States lists every state the run passed through, ending in StateDone.
type RunResult struct {
	RunID      string             `json:"run_id"`
	Trigger    Trigger            `json:"trigger"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	States     []RunState         `json:"states"`
	Positions  Positions          `json:"positions,omitempty"`
	Summaries  map[string]Summary `json:"summaries,omitempty"`
	Report     *Report            `json:"-"`
	EmailSent  bool               `json:"email_sent"`
	LoggedOut  bool               `json:"logged_out"`
	Aborted    bool               `json:"aborted"`
	Error      string             `json:"error,omitempty"`
}

// Reached reports whether the run passed through s.
func (r *RunResult) Reached(s RunState) bool {
	for _, st := range r.States {
		if st == s {
			return true
		}
	}
	return false
}

// Last returns the most recent state.
func (r *RunResult) Last() RunState {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}
