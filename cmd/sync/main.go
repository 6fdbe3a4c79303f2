package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/database"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/logger"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
)

// One-shot sync runner for cron. Exits non-zero when the run fails so the
// scheduler can alert on it.
func main() {
	var (
		termOrgUnitID int
		force         bool
		program       string
		termsOnly     bool
	)
	flag.IntVar(&termOrgUnitID, "term", 0, "Term org unit id to sync (0 = all active terms)")
	flag.BoolVar(&force, "force", false, "Bypass staleness checks and refresh everything")
	flag.StringVar(&program, "program", "", "Restrict the sync to one program code")
	flag.BoolVar(&termsOnly, "terms-only", false, "Only refresh the term catalog")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	termRepo := repository.NewTermRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	programRepo := repository.NewProgramRepository(pool)
	syncLogRepo := repository.NewSyncLogRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	cacheRepo := repository.NewDetailCacheRepository(pool)

	tokens := brightspace.NewOAuthTokenProvider(
		cfg.OAuthTokenURL, cfg.OAuthClientID, cfg.OAuthClientSecret,
		settingRepo, log,
	)
	client := brightspace.NewClient(cfg, tokens, log)
	locker := service.NewRedisTermLocker(rdb, cfg.SyncLockTTL, log)
	syncService := service.NewSyncService(
		client, termRepo, classRepo, programRepo,
		syncLogRepo, settingRepo, cacheRepo, locker, cfg, log,
	)

	if _, err := syncService.SyncTerms(ctx); err != nil {
		log.Fatal().Err(err).Msg("Term sync failed")
	}
	if termsOnly {
		return
	}

	terms, err := termRepo.List(ctx, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list terms")
	}

	failed := false
	for _, term := range terms {
		if termOrgUnitID != 0 && term.OrgUnitID != termOrgUnitID {
			continue
		}
		result, err := syncService.SyncTerm(ctx, term.ID, term.OrgUnitID, force, program)
		if err != nil {
			log.Error().Err(err).Str("term", term.Name).Msg("Class sync failed")
			failed = true
			continue
		}
		log.Info().
			Str("term", term.Name).
			Int("total", result.Total).
			Int("new", result.New).
			Int("updated", result.Updated).
			Int("ignored", result.Ignored).
			Int("errors", result.Errors).
			Msg("Class sync finished")
	}

	if failed {
		os.Exit(1)
	}
}
