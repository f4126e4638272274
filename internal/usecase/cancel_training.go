package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/registry"
	"github.com/flaviabeo/caikit/internal/runner"
)

// CancelTrainingUsecase coordinates a cancellation: the registry commits
// CANCELED first, then the pool signals the work context so cooperative
// trainers can stop early.
type CancelTrainingUsecase struct {
	registry *registry.Registry
	pool     *runner.Pool
	logger   *zap.Logger
}

// NewCancelTrainingUsecase creates a new CancelTrainingUsecase.
func NewCancelTrainingUsecase(reg *registry.Registry, pool *runner.Pool, logger *zap.Logger) *CancelTrainingUsecase {
	return &CancelTrainingUsecase{
		registry: reg,
		pool:     pool,
		logger:   logger,
	}
}

// Execute cancels a training and returns the post-cancel snapshot. A
// training already in a terminal state keeps that state; an unknown id
// fails with not-found.
func (uc *CancelTrainingUsecase) Execute(ctx context.Context, id string) (*domain.Training, error) {
	if err := uc.registry.Cancel(id); err != nil {
		uc.logger.Debug("Cancel requested for unknown training", zap.String("training_id", id))
		return nil, err
	}

	// Status is committed; the context signal is best effort on top.
	uc.pool.Abort(id)

	t, err := uc.registry.Get(id)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Training cancel processed",
		zap.String("training_id", id),
		zap.String("status", string(t.Status)),
	)
	return t, nil
}
