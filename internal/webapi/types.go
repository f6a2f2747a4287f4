package webapi

import "github.com/vedanthq/SLMGen/internal/models"

// HealthResponse is the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// UploadResponse is returned after a dataset is accepted.
type UploadResponse struct {
	SessionID string               `json:"session_id"`
	Stats     *models.DatasetStats `json:"stats"`
	// Skipped counts lines dropped as malformed or structurally invalid.
	Skipped int    `json:"skipped_lines"`
	Message string `json:"message"`
}

// SessionRequest names the session an operation applies to.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// AnalyzeResponse carries the stats and characteristics of a session.
type AnalyzeResponse struct {
	SessionID       string                         `json:"session_id"`
	Stats           *models.DatasetStats           `json:"stats"`
	Characteristics *models.DatasetCharacteristics `json:"characteristics"`
}

// RecommendRequest selects a task and deployment target for a session.
type RecommendRequest struct {
	SessionID  string `json:"session_id"`
	Task       string `json:"task"`
	Deployment string `json:"deployment"`
	// Explain adds the per-model score breakdown.
	Explain bool `json:"explain,omitempty"`
}

// GenerateRequest asks for a notebook. ModelID defaults to the session's
// primary recommendation.
type GenerateRequest struct {
	SessionID string `json:"session_id"`
	ModelID   string `json:"model_id,omitempty"`
}

// NotebookResponse describes a generated notebook.
type NotebookResponse struct {
	SessionID        string `json:"session_id"`
	NotebookFilename string `json:"notebook_filename"`
	DownloadURL      string `json:"download_url"`
	ColabURL         string `json:"colab_url,omitempty"`
	JobID            string `json:"job_id,omitempty"`
	Message          string `json:"message"`
}
