package domain

import "time"

// RunID identifies one probe run recorded by the API server.
type RunID string

// Run is a probe invocation made through the HTTP API. It only lives in the
// server's memory.
type Run struct {
	ID         RunID     `json:"id"`
	Probe      string    `json:"probe"`
	Outcome    Outcome   `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
