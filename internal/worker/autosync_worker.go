package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
)

// AutoSyncWorker periodically refreshes the term catalog and runs a class
// sync for every active term, so the dashboard stays warm without manual
// triggers. Staleness checks inside the sync keep the periodic runs cheap.
type AutoSyncWorker struct {
	syncService *service.SyncService
	terms       *repository.TermRepository
	interval    time.Duration
	log         zerolog.Logger
}

// NewAutoSyncWorker creates a new AutoSyncWorker.
func NewAutoSyncWorker(syncService *service.SyncService, terms *repository.TermRepository, cfg *config.Config, log zerolog.Logger) *AutoSyncWorker {
	return &AutoSyncWorker{
		syncService: syncService,
		terms:       terms,
		interval:    cfg.AutoSyncInterval,
		log:         log.With().Str("component", "autosync_worker").Logger(),
	}
}

// Start runs the periodic loop until the context is cancelled. The first
// pass runs after one full interval, not at startup, so deploys do not
// trigger an immediate upstream storm.
func (w *AutoSyncWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("AutoSyncWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AutoSyncWorker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *AutoSyncWorker) runOnce(ctx context.Context) {
	if _, err := w.syncService.SyncTerms(ctx); err != nil {
		w.log.Error().Err(err).Msg("periodic term sync failed")
		// Terms may still be usable from an earlier run; keep going.
	}

	terms, err := w.terms.List(ctx, true)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list active terms")
		return
	}

	for _, term := range terms {
		if ctx.Err() != nil {
			return
		}
		result, err := w.syncService.SyncTerm(ctx, term.ID, term.OrgUnitID, false, "")
		if err != nil {
			if errors.Is(err, service.ErrSyncInProgress) {
				w.log.Debug().Str("term", term.Name).Msg("term sync skipped, already running")
				continue
			}
			w.log.Error().Err(err).Str("term", term.Name).Msg("periodic class sync failed")
			continue
		}
		w.log.Info().
			Str("term", term.Name).
			Int("total", result.Total).
			Int("updated", result.Updated).
			Msg("periodic class sync finished")
	}
}
