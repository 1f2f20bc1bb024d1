package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusFailed      RunStatus = "failed"
)

// DiagnosticKind mirrors the unresolved outcome kinds.
type DiagnosticKind string

const (
	DiagnosticNotFound DiagnosticKind = "not_found"
	DiagnosticFailed   DiagnosticKind = "failed"
)

// Run is one invocation of the enrichment pipeline.
type Run struct {
	ID         string     `json:"id"`
	InputPath  string     `json:"input_path"`
	OutputPath string     `json:"output_path"`
	Status     RunStatus  `json:"status"`
	Summary    *Summary   `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Diagnostic is an operator-facing note about a record left unresolved.
type Diagnostic struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Business  string         `json:"business"`
	Query     string         `json:"query"`
	Kind      DiagnosticKind `json:"kind"`
	Detail    string         `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Summary holds the counts reported at the end of a run.
type Summary struct {
	RunID      string   `json:"run_id,omitempty"`
	Loaded     int      `json:"loaded"`
	Removed    int      `json:"removed"`
	Skipped    int      `json:"skipped"`
	Resolved   int      `json:"resolved"`
	NotFound   int      `json:"not_found"`
	Failed     int      `json:"failed"`
	Pending    int      `json:"pending"`
	Unresolved []string `json:"unresolved,omitempty"`
	OutputPath string   `json:"output_path"`
}

// Lookups is the number of external lookups the run issued.
func (s Summary) Lookups() int {
	return s.Resolved + s.NotFound + s.Failed
}
