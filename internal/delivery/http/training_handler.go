package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/domain"
	"github.com/flaviabeo/caikit/internal/usecase"
)

// TrainingHandler handles HTTP requests for training jobs. Training ids are
// treated as opaque strings end to end: an id that was never issued simply
// resolves to not-found, never to a format error.
type TrainingHandler struct {
	submitUC *usecase.SubmitTrainingUsecase
	statusUC *usecase.TrainingStatusUsecase
	cancelUC *usecase.CancelTrainingUsecase
	logger   *zap.Logger
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(
	submitUC *usecase.SubmitTrainingUsecase,
	statusUC *usecase.TrainingStatusUsecase,
	cancelUC *usecase.CancelTrainingUsecase,
	logger *zap.Logger,
) *TrainingHandler {
	return &TrainingHandler{
		submitUC: submitUC,
		statusUC: statusUC,
		cancelUC: cancelUC,
		logger:   logger,
	}
}

// Submit handles POST /api/v1/trainings
func (h *TrainingHandler) Submit(c *gin.Context) {
	var req domain.SubmitTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.submitUC.Execute(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTrainerNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrPoolStopped):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service is shutting down"})
		default:
			h.logger.Error("Submit training failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GetByID handles GET /api/v1/trainings/:id
func (h *TrainingHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	t, err := h.statusUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTrainingNotFound) {
			// The error message already carries the id; it is forwarded
			// unaltered.
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Get training failed", zap.Error(err), zap.String("training_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, t)
}

// Cancel handles POST /api/v1/trainings/:id/cancel
func (h *TrainingHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	t, err := h.cancelUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTrainingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error() + ". Did not perform cancel"})
			return
		}
		h.logger.Error("Cancel training failed", zap.Error(err), zap.String("training_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, t)
}

// List handles GET /api/v1/trainings
func (h *TrainingHandler) List(c *gin.Context) {
	trainings := h.statusUC.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"trainings": trainings,
		"count":     len(trainings),
	})
}
