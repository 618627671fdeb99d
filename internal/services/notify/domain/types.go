// Package domain defines the notify service events, frames and ports
package domain

import (
	"time"

	perr "darkroom/internal/platform/errors"
)

// Result statuses the worker tier publishes
const (
	StatusDone   = "DONE"
	StatusFailed = "FAILED"
)

// FrameTypeProcessingUpdate is the only frame type pushed today
const FrameTypeProcessingUpdate = "PROCESSING_UPDATE"

// ResultEvent is one job outcome pulled from the results topic
type ResultEvent struct {
	JobID          string `json:"job_id"`
	OwnerID        string `json:"owner_id"`
	Status         string `json:"status"`
	ResultLocation string `json:"result_location,omitempty"`
}

// Validate rejects events that cannot be routed
func (e ResultEvent) Validate() error {
	switch {
	case e.JobID == "":
		return perr.InvalidArgf("result event missing job_id")
	case e.OwnerID == "":
		return perr.InvalidArgf("result event missing owner_id")
	case e.Status == "":
		return perr.InvalidArgf("result event missing status")
	}
	return nil
}

// Frame is the wire payload pushed to a connected client
type Frame struct {
	Type   string `json:"type"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// FrameFor builds the client frame for a decoded result event
func FrameFor(e ResultEvent) Frame {
	return Frame{Type: FrameTypeProcessingUpdate, JobID: e.JobID, Status: e.Status}
}

// DeliveryRecord is one dispatch outcome for the audit sink
type DeliveryRecord struct {
	JobID   string
	UserID  string
	Status  string
	Outcome string
	At      time.Time
}
