package main

import (
	"context"

	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/internal/storage"
	"github.com/mvibe/marketplace/internal/utils"
	"github.com/mvibe/marketplace/pkg/logger"
)

// appServices holds the long-lived dependencies shared by the handlers.
type appServices struct {
	store       storage.ObjectStore
	taskQueue   services.TaskQueue
	worker      *services.Worker
	maintenance *services.Maintenance
	redis       *services.RedisProbe
	hub         *services.SSEHub
	// closed on shutdown to end background loops
	stop chan struct{}
}

// bootstrap initializes all application dependencies: database, storage,
// view queue and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.Auth.JWTSecret)
	utils.SetJWTAudience(cfg.Auth.Audience)

	if err := models.InitDB(&cfg.Database, cfg.Server.LogLevel == "debug"); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitSystemLogger(models.GetDB())

	store, err := storage.New(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Views go through Redis when enabled, otherwise they are applied in-process
	projectService := services.NewProjectService(models.GetDB())
	taskQueue := services.NewTaskQueue(&cfg.Redis, projectService.ProcessView)

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis, projectService.ProcessView)
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start view worker: %v", err)
		}
	}

	maintenance := services.NewMaintenance(models.GetDB(), &cfg.Audit)
	if err := maintenance.Start(); err != nil {
		logger.Warnf("Maintenance scheduler not started: %v", err)
	}

	return &appServices{
		store:       store,
		taskQueue:   taskQueue,
		worker:      worker,
		maintenance: maintenance,
		redis:       services.NewRedisProbe(&cfg.Redis),
		hub:         services.NewSSEHub(),
		stop:        make(chan struct{}),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	close(s.stop)
	s.maintenance.Stop()
	logger.Info().Msg("Maintenance scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if err := s.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close storage")
	}
	if err := models.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
}
