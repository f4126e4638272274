package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/delivery/http/middleware"
	"github.com/flaviabeo/caikit/internal/registry"
	"github.com/flaviabeo/caikit/internal/runner"
	"github.com/flaviabeo/caikit/internal/trainer"
	"github.com/flaviabeo/caikit/internal/usecase"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	SubmitUC  *usecase.SubmitTrainingUsecase
	StatusUC  *usecase.TrainingStatusUsecase
	CancelUC  *usecase.CancelTrainingUsecase
	Catalog   *trainer.Catalog
	Registry  *registry.Registry
	Pool      *runner.Pool
	Logger    *zap.Logger
	RateRPS   float64
	RateBurst int
	MaxBody   int64
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check (no rate limiting)
		healthHandler := NewHealthHandler(deps.Registry, deps.Pool, deps.Logger)
		v1.GET("/health", healthHandler.Health)

		// Trainer catalog
		trainerHandler := NewTrainerHandler(deps.Catalog)
		v1.GET("/trainers", trainerHandler.List)

		// Trainings (rate limited)
		trainingHandler := NewTrainingHandler(deps.SubmitUC, deps.StatusUC, deps.CancelUC, deps.Logger)
		limited := v1.Group("")
		limited.Use(middleware.RateLimiter(deps.RateRPS, deps.RateBurst))
		limited.POST("/trainings", middleware.BodySizeLimit(deps.MaxBody), trainingHandler.Submit)
		limited.GET("/trainings", trainingHandler.List)
		limited.GET("/trainings/:id", trainingHandler.GetByID)
		limited.POST("/trainings/:id/cancel", trainingHandler.Cancel)

		// WebSocket for real-time status updates
		wsHandler := NewWebSocketHandler(deps.StatusUC, deps.Logger)
		v1.GET("/trainings/:id/watch", wsHandler.Watch)
	}

	return router
}
