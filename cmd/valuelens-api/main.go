// Package main is the entry point for the valuelens-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/valuelens/valuelens-api/internal/config"
	"github.com/valuelens/valuelens-api/internal/database"
	"github.com/valuelens/valuelens-api/internal/http/handlers"
	"github.com/valuelens/valuelens-api/internal/http/routes"
	"github.com/valuelens/valuelens-api/internal/logging"
	"github.com/valuelens/valuelens-api/internal/repository"
	"github.com/valuelens/valuelens-api/internal/service"
	"github.com/valuelens/valuelens-api/internal/shutdown"
	"github.com/valuelens/valuelens-api/internal/version"
	"github.com/valuelens/valuelens-api/internal/worker"
)

func main() {
	// Initialize logger with TTY detection and format control
	logger := logging.SetDefault()

	// Log version info first thing
	v := version.Get()
	logger.Info("starting valuelens-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Log current schema version
	schemaVersion, err := database.GetLatestSchemaVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		migrationCount, _ := database.GetMigrationCount(db)
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", migrationCount)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Fail jobs stuck in processing from a previous server run
	staleCount, err := repos.Job.MarkStaleProcessingFailed(context.Background(), cfg.StaleJobMaxAge)
	if err != nil {
		logger.Warn("failed to clean up stale jobs", "error", err)
	} else if staleCount > 0 {
		logger.Info("cleaned up stale processing jobs", "count", staleCount)
	}

	// Initialize services
	services := service.NewServices(cfg, repos, logger)

	// Start background workers for extraction job processing
	jobWorker := worker.New(
		repos.Job,
		services.Pipeline,
		worker.Config{
			PollInterval: cfg.WorkerPollInterval,
			Concurrency:  cfg.WorkerConcurrency,
		},
		logger,
	)
	ctx, cancel := context.WithCancel(context.Background())
	jobWorker.Start(ctx)

	// Idle monitor for scale-to-zero deployments (disabled unless configured)
	idleMonitor := shutdown.NewIdleMonitor(shutdown.Config{
		Timeout:      cfg.IdleTimeout,
		ExcludePaths: []string{"/healthz", "/readyz"},
		BusyCheck:    jobWorker.Busy,
		Logger:       logger,
	})
	idleMonitor.Start()

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(idleMonitor.Middleware)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Rate limit by IP
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Global concurrency throttle - prevent system overload
	router.Use(middleware.Throttle(100))

	// Huma API with OpenAPI docs
	humaConfig := huma.DefaultConfig("ValueLens API", "1.0.0")
	humaConfig.Info.Description = "Extracts product variants from retail pages with an LLM and ranks them by price per unit."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	api := humachi.New(router, humaConfig)

	routes.Register(api, handlers.New(services), db)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal or idle timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-sigChan:
		case <-idleMonitor.Idle():
		}

		logger.Info("shutting down server")
		idleMonitor.Stop()

		// Stop the workers first
		cancel()
		jobWorker.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
