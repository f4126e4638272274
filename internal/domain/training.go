package domain

import (
	"context"
	"encoding/json"
	"time"
)

// TrainingStatus represents the lifecycle state of a training job.
type TrainingStatus string

const (
	StatusRunning   TrainingStatus = "RUNNING"
	StatusCompleted TrainingStatus = "COMPLETED"
	StatusCanceled  TrainingStatus = "CANCELED"
	StatusErrored   TrainingStatus = "ERRORED"
)

// IsTerminal returns true if the status represents a final state.
// A terminal status is never transitioned out of.
func (s TrainingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusErrored:
		return true
	}
	return false
}

// WorkFunc is one opaque unit of training work. It either returns an
// artifact or an error; the runtime never inspects the artifact.
type WorkFunc func(ctx context.Context) (any, error)

// Training represents a training job throughout its lifecycle. A training
// is RUNNING from the moment it is accepted, even while it waits for a
// free worker.
type Training struct {
	ID          string         `json:"training_id"`
	TrainerName string         `json:"trainer"`
	ModelName   string         `json:"model_name,omitempty"`
	Status      TrainingStatus `json:"status"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// SubmitTrainingRequest represents an incoming training submission from the API.
type SubmitTrainingRequest struct {
	TrainerName string          `json:"trainer" binding:"required"`
	ModelName   string          `json:"model_name"`
	Parameters  json.RawMessage `json:"parameters"`
}

// SubmitTrainingResponse is returned after a successful submission.
type SubmitTrainingResponse struct {
	TrainingID string         `json:"training_id"`
	Status     TrainingStatus `json:"status"`
}
