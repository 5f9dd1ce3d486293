package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus describes the most recent analysis run.
type RunStatus struct {
	RunID       uuid.UUID  `json:"run_id"`
	VideoID     string     `json:"video_id"`
	State       string     `json:"state"` // "running" | "completed" | "failed"
	Artifacts   int        `json:"artifacts"`
	Failed      []string   `json:"failed_generators,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventStatusUpdate = "status_update"
	EventCompleted    = "completed"
	EventError        = "error"
)

type StatusUpdate struct {
	RunID    uuid.UUID `json:"run_id"`
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
	Detail   string    `json:"detail,omitempty"`
}

type CompletedEvent struct {
	RunID     uuid.UUID `json:"run_id"`
	VideoID   string    `json:"video_id"`
	Artifacts int       `json:"artifacts"`
}

type ErrorEvent struct {
	RunID        uuid.UUID `json:"run_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
