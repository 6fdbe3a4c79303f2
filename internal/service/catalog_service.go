package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
)

// ErrTermNotFound is returned when a term org unit has no local row yet.
var ErrTermNotFound = errors.New("term not found")

// CatalogService serves the read-only catalog surface: terms, programs and
// recent sync runs. It never talks to upstream.
type CatalogService struct {
	terms    *repository.TermRepository
	programs *repository.ProgramRepository
	logs     *repository.SyncLogRepository
	settings *repository.SettingRepository
	log      zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	terms *repository.TermRepository,
	programs *repository.ProgramRepository,
	logs *repository.SyncLogRepository,
	settings *repository.SettingRepository,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		terms:    terms,
		programs: programs,
		logs:     logs,
		settings: settings,
		log:      log.With().Str("component", "catalog_service").Logger(),
	}
}

// ListTerms returns the known terms, optionally only active ones.
func (s *CatalogService) ListTerms(ctx context.Context, activeOnly bool) ([]model.Term, error) {
	return s.terms.List(ctx, activeOnly)
}

// ResolveTerm maps an upstream org unit id to the local term row id.
func (s *CatalogService) ResolveTerm(ctx context.Context, orgUnitID int) (int, error) {
	id, err := s.terms.GetIDByOrgUnit(ctx, orgUnitID)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrTermNotFound
	}
	return id, nil
}

// ListPrograms returns the active program catalog.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]model.Program, error) {
	return s.programs.ListActive(ctx)
}

// ListProgramsByTerm returns only the programs that have classes in a term.
func (s *CatalogService) ListProgramsByTerm(ctx context.Context, termID int) ([]model.Program, error) {
	return s.programs.ListByTerm(ctx, termID)
}

// RecentSyncRuns returns the latest run-log rows, newest first.
func (s *CatalogService) RecentSyncRuns(ctx context.Context, limit int) ([]model.SyncLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.logs.ListRecent(ctx, limit)
}

// LastSyncAt returns the last-sync marker, or "" when no sync has run yet.
func (s *CatalogService) LastSyncAt(ctx context.Context) (string, error) {
	return s.settings.Get(ctx, model.SettingLastSync)
}
