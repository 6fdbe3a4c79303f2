package model

import "time"

// Sync kinds recorded in the run log.
const (
	SyncKindClasses = "CLASES"
	SyncKindTerms   = "PERIODOS"
)

// SyncLog is one append-only audit row per orchestrator invocation.
type SyncLog struct {
	ID              int       `json:"id"`
	Kind            string    `json:"kind"`
	TermID          int       `json:"term_id"`
	Total           int       `json:"total"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	ErrorText       *string   `json:"error_text,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	FinishedAt      time.Time `json:"finished_at"`
}

// SyncResult is the summary returned by a sync run.
type SyncResult struct {
	Total           int     `json:"total"`
	New             int     `json:"new"`
	Updated         int     `json:"updated"`
	Errors          int     `json:"errors"`
	Ignored         int     `json:"ignored"`
	DurationSeconds float64 `json:"duration_seconds"`
}
