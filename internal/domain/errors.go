package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTrainingNotFound is matched by errors.Is against any
	// *TrainingNotFoundError returned from registry lookups.
	ErrTrainingNotFound = errors.New("training not found")

	// ErrTrainingAlreadyExists is returned when a training id collides on insert.
	ErrTrainingAlreadyExists = errors.New("training already exists")

	// ErrTrainerNotFound is returned when no trainer is registered under the
	// requested name.
	ErrTrainerNotFound = errors.New("trainer not found")

	// ErrTrainerAlreadyRegistered is returned when a trainer name is registered twice.
	ErrTrainerAlreadyRegistered = errors.New("trainer already registered")

	// ErrPoolStopped is returned when work is dispatched to a stopped pool.
	ErrPoolStopped = errors.New("runner pool is stopped")

	// ErrRateLimitExceeded is returned when API rate limit is hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded, try again later")
)

// TrainingNotFoundError reports an id absent from the registry. Its message
// always carries the offending id; the HTTP layer forwards it verbatim.
type TrainingNotFoundError struct {
	ID string
}

func (e *TrainingNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in the list of currently running training jobs", e.ID)
}

// Is lets errors.Is(err, ErrTrainingNotFound) match without losing the id.
func (e *TrainingNotFoundError) Is(target error) bool {
	return target == ErrTrainingNotFound
}

// NewTrainingNotFound builds the not-found error for an id.
func NewTrainingNotFound(id string) error {
	return &TrainingNotFoundError{ID: id}
}
