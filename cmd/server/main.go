package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/config"
	handler "github.com/flaviabeo/caikit/internal/delivery/http"
	"github.com/flaviabeo/caikit/internal/registry"
	"github.com/flaviabeo/caikit/internal/runner"
	"github.com/flaviabeo/caikit/internal/trainer"
	"github.com/flaviabeo/caikit/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Caikit Training Server")

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize training registry and runner pool
	reg := registry.New()
	pool := runner.NewPool(reg, cfg.Runner.PoolSize, cfg.Runner.TrainTimeout, logger)
	logger.Info("Runner pool ready", zap.Int("size", pool.Size()))

	// Initialize trainer catalog with built-in trainers
	catalog := trainer.NewCatalog()
	if err := trainer.RegisterBuiltins(catalog); err != nil {
		logger.Fatal("Failed to register built-in trainers", zap.Error(err))
	}
	logger.Info("Trainers registered", zap.Strings("trainers", catalog.Names()))

	// Start retention sweeper if a TTL is configured
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Registry.RetentionTTL > 0 {
		go sweepLoop(sweepCtx, reg, cfg.Registry.RetentionTTL, cfg.Registry.SweepInterval, logger)
	}

	// Initialize use cases
	submitUC := usecase.NewSubmitTrainingUsecase(catalog, reg, pool, logger)
	statusUC := usecase.NewTrainingStatusUsecase(reg, logger)
	cancelUC := usecase.NewCancelTrainingUsecase(reg, pool, logger)

	// Initialize router
	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:  submitUC,
		StatusUC:  statusUC,
		CancelUC:  cancelUC,
		Catalog:   catalog,
		Registry:  reg,
		Pool:      pool,
		Logger:    logger,
		RateRPS:   cfg.Server.RateLimitRPS,
		RateBurst: cfg.Server.RateLimitBurst,
		MaxBody:   cfg.Server.MaxBodyBytes,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Training server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down training server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Wait for in-flight trainings to finish
	if err := pool.Stop(shutdownCtx); err != nil {
		logger.Warn("Runner pool stopped before all trainings finished", zap.Error(err))
	}

	logger.Info("Training server stopped")
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

// sweepLoop periodically evicts terminal trainings older than the retention TTL.
func sweepLoop(ctx context.Context, reg *registry.Registry, ttl, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := reg.Sweep(ttl); removed > 0 {
				logger.Info("Swept finished trainings", zap.Int("removed", removed))
			}
		}
	}
}
