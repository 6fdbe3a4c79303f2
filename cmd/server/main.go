package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/database"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/handler"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/logger"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/router"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/validator"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/worker"
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
		Msg("Starting TESA Syllabus Monitor")

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

	// ─── Initialize Repositories ───────────────────────────────────────
	termRepo := repository.NewTermRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	programRepo := repository.NewProgramRepository(pool)
	syncLogRepo := repository.NewSyncLogRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	cacheRepo := repository.NewDetailCacheRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// ─── Initialize Brightspace Client ─────────────────────────────────
	tokens := brightspace.NewOAuthTokenProvider(
		cfg.OAuthTokenURL, cfg.OAuthClientID, cfg.OAuthClientSecret,
		settingRepo, log,
	)
	client := brightspace.NewClient(cfg, tokens, log)

	// ─── Initialize Services ──────────────────────────────────────────
	locker := service.NewRedisTermLocker(rdb, cfg.SyncLockTTL, log)
	syncService := service.NewSyncService(
		client, termRepo, classRepo, programRepo,
		syncLogRepo, settingRepo, cacheRepo, locker, cfg, log,
	)
	catalogService := service.NewCatalogService(termRepo, programRepo, syncLogRepo, settingRepo, log)
	statsService := service.NewStatsService(statsRepo, settingRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Sync:  handler.NewSyncHandler(syncService, catalogService),
		Class: handler.NewClassHandler(syncService, classRepo),
		Term:  handler.NewTermHandler(catalogService),
		Stats: handler.NewStatsHandler(statsService),
		Token: handler.NewTokenHandler(tokens),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	purgeWorker := worker.NewPurgeWorker(syncService, cfg, log)
	go purgeWorker.Start(workerCtx)

	if cfg.CacheAutoUpdate {
		autoSyncWorker := worker.NewAutoSyncWorker(syncService, termRepo, cfg, log)
		go autoSyncWorker.Start(workerCtx)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

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

	// 2. Stop background workers. An in-flight sync notices the cancel at
	// the top of its record loop and writes an aborted run log.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to wind down.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
