package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stanley00316/election-system-demo-sub004/internal/config"
	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
)

// @title Campaign Analytics API
// @version 1.0
// @description Voter stance scoring, influence analysis and win-probability reports per campaign.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadDotEnv()

	logger := monitoring.NewLogger()
	slog.SetDefault(logger.Logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger.Logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := apperrors.InitSentry(cfg.SentryDSN, cfg.Environment, version); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer apperrors.FlushSentry(2 * time.Second)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	a, err := newApp(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("Startup failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Campaign analytics server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"database", cfg.DatabaseType,
			"redis", a.redis.IsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := a.Close(); err != nil {
		logger.Error("Failed to release resources", "error", err)
	}

	logger.Info("Server exited")
}
