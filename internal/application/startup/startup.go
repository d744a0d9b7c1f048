// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formflowhq/formflow-go/internal/application/container"
	"github.com/formflowhq/formflow-go/internal/infrastructure/caching"
	"github.com/formflowhq/formflow-go/internal/infrastructure/email"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/infrastructure/persistence/database"
	"github.com/formflowhq/formflow-go/internal/presentation/http/server"
	"github.com/formflowhq/formflow-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Channeled logging initialized")

	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())

	// Database
	logger.Startup().Info("Connecting to database", "driver", config.DBDriver, "path", config.DBPath)
	db, err := database.NewConnectionWithLogger(config.DBDriver, config.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)

	logger.Startup().Info("Ensuring database schema")
	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Aggregate cache. A missing redis is not fatal: analytics degrade to
	// computing fresh on every call.
	var backend caching.Backend
	redisBackend, err := caching.NewRedisBackend(config.RedisAddr, config.RedisPassword, config.RedisDB, logger)
	if err != nil {
		logger.Startup().Warn("Redis unavailable, analytics caching disabled", "addr", config.RedisAddr, "error", err.Error())
	} else {
		defer redisBackend.Close()
		backend = redisBackend
		logger.Startup().Info("Redis aggregate cache connected", "addr", config.RedisAddr)
	}
	cache := caching.NewAggregateCache(backend, config.AnalyticsCacheTTL, logger)

	// Submission notification email
	var emailService email.Service
	if config.NotificationsEnabled {
		emailService, err = email.NewService()
		if err != nil {
			logger.Startup().Warn("Email service unavailable, submission notifications disabled", "error", err.Error())
			emailService = nil
		} else {
			logger.Startup().Info("Submission notification email enabled", "from", config.EmailFrom)
		}
	}

	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(db, cache, emailService, logger, perfTracker)

	// HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
