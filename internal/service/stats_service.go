package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
)

// StatsService exposes the dashboard overview counters.
type StatsService struct {
	stats    *repository.StatsRepository
	settings *repository.SettingRepository
	log      zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(stats *repository.StatsRepository, settings *repository.SettingRepository, log zerolog.Logger) *StatsService {
	return &StatsService{
		stats:    stats,
		settings: settings,
		log:      log.With().Str("component", "stats_service").Logger(),
	}
}

// Overview returns the system-wide aggregate counters plus the last-sync
// marker.
func (s *StatsService) Overview(ctx context.Context) (*model.SystemStats, error) {
	stats, err := s.stats.Overview(ctx)
	if err != nil {
		return nil, err
	}

	lastSync, err := s.settings.Get(ctx, model.SettingLastSync)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read last-sync marker")
	} else {
		stats.LastSync = lastSync
	}

	return stats, nil
}
