package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/registry"
	"github.com/flaviabeo/caikit/internal/runner"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	registry *registry.Registry
	pool     *runner.Pool
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(reg *registry.Registry, pool *runner.Pool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		registry: reg,
		pool:     pool,
		logger:   logger,
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"runtime": gin.H{
			"trainings":        h.registry.Len(),
			"pool_size":        h.pool.Size(),
			"active_trainings": h.pool.Active(),
		},
	})
}
