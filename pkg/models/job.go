// Package models contains shared data models used across the rallylens codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle stage of the tracked analysis job.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFileSelected Phase = "file_selected"
	PhaseUploading    Phase = "uploading"
	PhaseProcessing   Phase = "processing"
	PhaseCompleted    Phase = "completed"
	PhaseError        Phase = "error"
)

// InFlight reports whether a job in this phase still has work pending upstream.
func (p Phase) InFlight() bool {
	return p == PhaseUploading || p == PhaseProcessing
}

// Terminal reports whether the phase ends the job.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// Job tracks one analysis attempt. The upstream service returns a video_id on
// POST /upload; the client polls GET /status/{video_id} until the job is
// completed or failed. A new upload replaces the Job wholesale.
type Job struct {
	ID          string    `json:"id,omitempty"`
	AttemptID   uuid.UUID `json:"attempt_id"`
	Phase       Phase     `json:"phase"`
	Progress    *int      `json:"progress,omitempty"`
	Message     string    `json:"message"`
	ErrorDetail *string   `json:"error_detail,omitempty"`
	FileName    string    `json:"file_name"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusUpdate is one decoded response of the status endpoint.
type StatusUpdate struct {
	Phase    Phase
	Message  string
	Progress *int
}

// MediaLinks are the analyzer URLs for a completed job's artifacts. They are
// handed to the dashboard as-is and never fetched by rallylens.
type MediaLinks struct {
	Video         string `json:"video"`
	VideoDownload string `json:"video_download"`
	Excel         string `json:"excel"`
}
