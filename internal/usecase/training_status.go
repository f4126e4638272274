package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/registry"
)

// TrainingStatusUsecase handles fetching training status and results.
type TrainingStatusUsecase struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewTrainingStatusUsecase creates a new TrainingStatusUsecase.
func NewTrainingStatusUsecase(reg *registry.Registry, logger *zap.Logger) *TrainingStatusUsecase {
	return &TrainingStatusUsecase{
		registry: reg,
		logger:   logger,
	}
}

// Execute retrieves a snapshot of a training by its id.
func (uc *TrainingStatusUsecase) Execute(ctx context.Context, id string) (*domain.Training, error) {
	t, err := uc.registry.Get(id)
	if err != nil {
		uc.logger.Debug("Training not found", zap.String("training_id", id))
		return nil, err
	}
	return t, nil
}

// List retrieves snapshots of all known trainings ordered by submission.
func (uc *TrainingStatusUsecase) List(ctx context.Context) []domain.Training {
	return uc.registry.List()
}
