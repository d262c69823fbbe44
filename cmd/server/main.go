package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fluentia/exam-engine/internal/auth"
	"github.com/fluentia/exam-engine/internal/catalog"
	"github.com/fluentia/exam-engine/internal/config"
	"github.com/fluentia/exam-engine/internal/database"
	"github.com/fluentia/exam-engine/internal/engine"
	"github.com/fluentia/exam-engine/internal/handler"
	"github.com/fluentia/exam-engine/internal/logger"
	"github.com/fluentia/exam-engine/internal/repository"
	"github.com/fluentia/exam-engine/internal/router"
	"github.com/fluentia/exam-engine/internal/snapshot"
	"github.com/fluentia/exam-engine/internal/submit"
	"github.com/fluentia/exam-engine/internal/validator"
	"github.com/fluentia/exam-engine/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Exam Engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Select Snapshot Backend ───────────────────────────────────────
	var store snapshot.Store
	switch cfg.SnapshotBackend {
	case "sqlite":
		sqliteStore, err := snapshot.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite snapshot store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Info().Str("path", cfg.SQLitePath).Msg("Snapshot backend: sqlite")
	default:
		store = snapshot.NewRedisStore(rdb)
		log.Info().Msg("Snapshot backend: redis")
	}

	// ─── External Collaborators ────────────────────────────────────────
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, log)
	submitClient := submit.NewClient(cfg.ScoringBaseURL, log)
	resultQueue := worker.NewRedisResultQueue(rdb)

	// ─── Session Manager ───────────────────────────────────────────────
	manager := engine.NewManager(
		catalogClient,
		store,
		submitClient,
		resultQueue,
		func() engine.TickSource { return engine.WallTicker{} },
		cfg.EndingClipBaseURL,
		log,
	)
	go manager.StartJanitor(ctx, time.Minute, cfg.SessionIdleTTL)

	// ─── Initialize Repositories & Handlers ────────────────────────────
	attemptRepo := repository.NewAttemptRepository(pool)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	handlers := &router.Handlers{
		Attempt: handler.NewAttemptHandler(manager, attemptRepo, log),
		WS:      handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(attemptRepo, rdb, log)
	go resultWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(verifier, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
