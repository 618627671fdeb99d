// Package domain defines the projects service types and ports
package domain

import "time"

// Image processing statuses
const (
	StatusUploadPending = "UPLOAD_PENDING"
	StatusCompleted     = "COMPLETED"
	StatusFailed        = "FAILED"
)

// Project is one user-owned collection of images
type Project struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image is one uploaded file and its processing state
type Image struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	JobID         string    `json:"job_id"`
	FileName      string    `json:"file_name"`
	Status        string    `json:"status"`
	OriginalPath  string    `json:"original_path"`
	ProcessedPath string    `json:"processed_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WorkRequestEvent is published once per uploaded image for the worker tier
type WorkRequestEvent struct {
	JobID          string `json:"job_id"`
	OwnerID        string `json:"owner_id"`
	SourceLocation string `json:"source_location"`
}

// ResultUpdate is the applier's view of one worker outcome
type ResultUpdate struct {
	JobID          string `json:"job_id"`
	OwnerID        string `json:"owner_id"`
	Status         string `json:"status"`
	ResultLocation string `json:"result_location,omitempty"`
}
