package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/registry"
	"github.com/flaviabeo/caikit/internal/runner"
	"github.com/flaviabeo/caikit/internal/trainer"
)

// SubmitTrainingUsecase handles the business logic for submitting trainings.
type SubmitTrainingUsecase struct {
	catalog  *trainer.Catalog
	registry *registry.Registry
	pool     *runner.Pool
	logger   *zap.Logger
}

// NewSubmitTrainingUsecase creates a new SubmitTrainingUsecase.
func NewSubmitTrainingUsecase(
	catalog *trainer.Catalog,
	reg *registry.Registry,
	pool *runner.Pool,
	logger *zap.Logger,
) *SubmitTrainingUsecase {
	return &SubmitTrainingUsecase{
		catalog:  catalog,
		registry: reg,
		pool:     pool,
		logger:   logger,
	}
}

// Execute resolves the trainer, registers the training in state RUNNING and
// hands the work unit to the pool. It returns as soon as the id is minted;
// the outcome is observable only through the registry.
func (uc *SubmitTrainingUsecase) Execute(ctx context.Context, req *domain.SubmitTrainingRequest) (*domain.SubmitTrainingResponse, error) {
	fn, err := uc.catalog.Resolve(req.TrainerName)
	if err != nil {
		uc.logger.Warn("Unknown trainer requested", zap.String("trainer", req.TrainerName))
		return nil, err
	}

	// Generate UUIDv7 (time-ordered)
	trainingID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}
	id := trainingID.String()

	t := &domain.Training{
		ID:          id,
		TrainerName: req.TrainerName,
		ModelName:   req.ModelName,
		SubmittedAt: time.Now().UTC(),
	}
	if err := uc.registry.Add(t); err != nil {
		uc.logger.Error("Failed to register training", zap.Error(err), zap.String("training_id", id))
		return nil, fmt.Errorf("register training: %w", err)
	}

	// The request body is recycled by the HTTP layer once the handler
	// returns, so the work closure captures its own copy of the parameters.
	params := make(json.RawMessage, len(req.Parameters))
	copy(params, req.Parameters)
	work := func(workCtx context.Context) (any, error) {
		return fn(workCtx, params)
	}

	if err := uc.pool.Dispatch(id, work); err != nil {
		uc.logger.Error("Failed to dispatch training", zap.Error(err), zap.String("training_id", id))
		_ = uc.registry.Fail(id, err)
		return nil, err
	}

	uc.logger.Info("Training submitted",
		zap.String("training_id", id),
		zap.String("trainer", req.TrainerName),
		zap.String("model_name", req.ModelName),
	)

	return &domain.SubmitTrainingResponse{
		TrainingID: id,
		Status:     domain.StatusRunning,
	}, nil
}
