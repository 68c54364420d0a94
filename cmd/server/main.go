package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/cache"
	"github.com/stemsi/coderunner-dash/internal/config"
	"github.com/stemsi/coderunner-dash/internal/database"
	"github.com/stemsi/coderunner-dash/internal/handler"
	"github.com/stemsi/coderunner-dash/internal/logger"
	"github.com/stemsi/coderunner-dash/internal/repository"
	"github.com/stemsi/coderunner-dash/internal/router"
	"github.com/stemsi/coderunner-dash/internal/service"
	"github.com/stemsi/coderunner-dash/internal/session"
	"github.com/stemsi/coderunner-dash/internal/validator"
	"github.com/stemsi/coderunner-dash/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("moodle", cfg.MoodleBaseURL).
		Msg("Starting CodeRunner Dashboard")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Snapshot Cache (Redis optional) ───────────────────────────────
	var snapCache cache.SnapshotCache = cache.NewMemoryCache()
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		snapCache = cache.NewRedisCache(rdb, 0)
	} else {
		log.Info().Msg("REDIS_URL not set, using in-memory snapshot cache")
	}

	// ─── History Store (PostgreSQL optional) ───────────────────────────
	var history repository.HistoryRepository = repository.NewMemoryHistory()
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		history = repository.NewPostgresHistory(pool)
	} else {
		log.Info().Msg("DATABASE_URL not set, snapshot history is in-memory only")
	}

	// ─── Sessions and Services ─────────────────────────────────────────
	store := session.NewStore(cfg.SessionTTL, log)
	syncService := service.NewSyncService(cfg, snapCache, history, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Session:   handler.NewSessionHandler(cfg, syncService, store, log),
		Dashboard: handler.NewDashboardHandler(syncService, log),
		History:   handler.NewHistoryHandler(syncService, log),
		WS:        handler.NewWSHandler(syncService, cfg.AllowedOrigins, log),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autoSync := worker.NewAutoSyncWorker(store, syncService, log)
	go autoSync.Start(workerCtx)
	go store.StartJanitor(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(store, handlers, cfg)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
