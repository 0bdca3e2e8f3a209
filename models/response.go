package models

// RunResponse is the response for POST /api/v1/runs.
type RunResponse struct {
	// Success indicates whether the run completed without errors.
	Success bool `json:"success"`

	// RunID identifies the run in logs.
	RunID string `json:"run_id"`

	// Snapshot is present when scraping succeeded.
	Snapshot *AssetSnapshot `json:"snapshot,omitempty"`

	// Indicators is present when indicator calculation succeeded.
	Indicators *OperationalIndicators `json:"indicators,omitempty"`

	// DurationMs is the wall-clock duration of the run.
	DurationMs int64 `json:"duration_ms"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SnapshotResponse is the response for GET /api/v1/snapshots/:date.
type SnapshotResponse struct {
	Success  bool           `json:"success"`
	Date     string         `json:"date"`
	Cached   bool           `json:"cached"`
	Snapshot *AssetSnapshot `json:"snapshot,omitempty"`
	Error    *ErrorDetail   `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "running"
	Uptime  string `json:"uptime"`
	Running bool   `json:"running"`
	Version string `json:"version"`
}
