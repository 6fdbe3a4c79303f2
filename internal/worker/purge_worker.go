package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
)

// PurgeInterval is how often the stale-payload sweep runs.
const PurgeInterval = 1 * time.Hour

// PurgeWorker sweeps expired raw detail payloads out of the cache tables.
type PurgeWorker struct {
	syncService *service.SyncService
	afterHours  int
	log         zerolog.Logger
}

// NewPurgeWorker creates a new PurgeWorker.
func NewPurgeWorker(syncService *service.SyncService, cfg *config.Config, log zerolog.Logger) *PurgeWorker {
	return &PurgeWorker{
		syncService: syncService,
		afterHours:  cfg.PurgeAfterHours,
		log:         log.With().Str("component", "purge_worker").Logger(),
	}
}

// Start runs the hourly sweep until the context is cancelled.
func (w *PurgeWorker) Start(ctx context.Context) {
	w.log.Info().Int("after_hours", w.afterHours).Msg("PurgeWorker started")

	ticker := time.NewTicker(PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("PurgeWorker stopped")
			return
		case <-ticker.C:
			w.syncService.PurgeCacheOlderThan(ctx, w.afterHours)
		}
	}
}
