package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/task-manager/internal/api"
	"github.com/dom/task-manager/internal/auth"
	"github.com/dom/task-manager/internal/config"
	"github.com/dom/task-manager/internal/logger"
	"github.com/dom/task-manager/internal/maintenance"
	"github.com/dom/task-manager/internal/repository/jsonfile"
	"github.com/dom/task-manager/internal/service"
	"github.com/dom/task-manager/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	if cfg.UsingDefaultSecret {
		log.Warn().Msg("JWT_SECRET is not set; using the development fallback secret")
	}

	ctx := context.Background()

	// Initialize storage
	repos, err := jsonfile.Open(ctx, cfg.StorageDir, auth.NewPasswordHasher(cfg.BcryptCost))
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.StorageDir).Msg("Failed to open storage")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, cfg, hub)

	scheduler, err := maintenance.NewScheduler(cfg.StorageDir, cfg.BackupRetentionDays, cfg.BackupPruneSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create maintenance scheduler")
	}
	scheduler.Start()

	router := api.NewRouter(services, hub, cfg)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Str("storage", cfg.StorageDir).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()
	scheduler.Stop(shutdownCtx)

	log.Info().Msg("Server stopped")
}
