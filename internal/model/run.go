package model

import "time"

// RunStatus tracks the lifecycle of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// AnalyzeResult is the boundary shape returned to the presentation layer.
// Report is set when reduction produced a structured final report; otherwise
// Raw carries the unstructured text and Note says why.
type AnalyzeResult struct {
	Report          *AnalysisReport `json:"report,omitempty"`
	Raw             string          `json:"raw,omitempty"`
	Note            string          `json:"note,omitempty"`
	ProcessedChunks int             `json:"processedChunks"`
	TotalChunks     int             `json:"totalChunks"`
}

// Run is one persisted analysis run.
type Run struct {
	ID        string         `json:"id"`
	Status    RunStatus      `json:"status"`
	InputLen  int            `json:"input_len"`
	Result    *AnalyzeResult `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
