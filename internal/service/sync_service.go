package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/grades"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/nameparse"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
)

// ErrSyncInProgress is returned when a sync for the same term is already
// holding the advisory lock.
var ErrSyncInProgress = errors.New("sync already running for this term")

// ErrClassNotFound is returned by single-class refresh for an unknown row.
var ErrClassNotFound = errors.New("class not found")

// progressLogEvery controls how often the per-record loop emits a progress
// line.
const progressLogEvery = 20

const lastSyncLayout = "2006-01-02 15:04:05"

// Upstream is the slice of the Brightspace client the orchestrator consumes.
type Upstream interface {
	FetchTerms(ctx context.Context) ([]brightspace.OrgUnit, error)
	FetchClasses(ctx context.Context, termOrgUnitID int) ([]brightspace.OrgUnit, error)
	FetchContent(ctx context.Context, orgUnitID int) (*brightspace.ContentTree, error)
	FetchGradeItems(ctx context.Context, orgUnitID int) ([]brightspace.GradeItem, error)
	FetchGradeCategories(ctx context.Context, orgUnitID int) ([]brightspace.GradeCategory, error)
	FetchAnnouncementHasWelcome(ctx context.Context, orgUnitID int) (bool, error)
}

// TermLocker serializes sync runs per term: at most one in-flight sync per
// term org unit.
type TermLocker interface {
	Acquire(ctx context.Context, termOrgUnitID int) (bool, error)
	Release(ctx context.Context, termOrgUnitID int)
}

// Storage interfaces mirror the repository layer so tests can substitute
// in-memory fakes.
type termStore interface {
	UpsertByOrgUnit(ctx context.Context, t *model.Term) (int, error)
}

type classStore interface {
	UpsertByOrgUnit(ctx context.Context, c *model.Class) (int, bool, error)
	GetCacheState(ctx context.Context, id int) (*repository.CacheState, error)
	UpdateDetail(ctx context.Context, id int, d model.ClassDetail) (int64, error)
	ListByTerm(ctx context.Context, termID int, programCode string) ([]model.Class, error)
}

type programStore interface {
	GetIDByCode(ctx context.Context, code string) (*int, error)
}

type syncLogStore interface {
	Insert(ctx context.Context, l *model.SyncLog) error
}

type settingStore interface {
	Set(ctx context.Context, key, value string) error
}

type detailCacheStore interface {
	PutContent(ctx context.Context, classID int, payload []byte) error
	PutGrades(ctx context.Context, classID int, payload []byte) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SyncService is the orchestrator: it pages classes out of Brightspace,
// reconciles them with local rows, refreshes stale detail and records one
// audit row per run. It owns all writes to terms, classes and run logs.
type SyncService struct {
	upstream Upstream
	terms    termStore
	classes  classStore
	programs programStore
	logs     syncLogStore
	settings settingStore
	cache    detailCacheStore
	locks    TermLocker

	cacheDuration time.Duration
	throttle      time.Duration
	log           zerolog.Logger
}

// NewSyncService wires the orchestrator. All collaborators are injected; the
// service holds no global state.
func NewSyncService(
	upstream Upstream,
	terms *repository.TermRepository,
	classes *repository.ClassRepository,
	programs *repository.ProgramRepository,
	logs *repository.SyncLogRepository,
	settings *repository.SettingRepository,
	cache *repository.DetailCacheRepository,
	locks TermLocker,
	cfg *config.Config,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		upstream:      upstream,
		terms:         terms,
		classes:       classes,
		programs:      programs,
		logs:          logs,
		settings:      settings,
		cache:         cache,
		locks:         locks,
		cacheDuration: cfg.CacheDuration,
		throttle:      cfg.SyncThrottle,
		log:           log.With().Str("component", "sync_service").Logger(),
	}
}

// SyncTerms fetches all semesters from upstream and upserts them locally.
// Returns the number of terms reconciled.
func (s *SyncService) SyncTerms(ctx context.Context) (int, error) {
	upstreamTerms, err := s.upstream.FetchTerms(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("term fetch failed")
		return 0, err
	}

	count := 0
	for _, record := range upstreamTerms {
		orgUnitID, err := strconv.Atoi(record.Identifier)
		if err != nil {
			s.log.Warn().Str("identifier", record.Identifier).Msg("term with non-numeric identifier skipped")
			continue
		}
		term := &model.Term{
			OrgUnitID: orgUnitID,
			Code:      strings.TrimSpace(record.Code),
			Name:      strings.TrimSpace(record.Name),
		}
		if _, err := s.terms.UpsertByOrgUnit(ctx, term); err != nil {
			s.log.Error().Err(err).Int("org_unit_id", orgUnitID).Msg("term upsert failed")
			continue
		}
		count++
	}

	s.log.Info().Int("count", count).Msg("terms synchronized")
	return count, nil
}

// SyncTerm runs one full class sync for a term. The run is strictly
// sequential: one upstream request at a time, with a short throttle between
// per-class detail fetches. Per-class failures are counted, not fatal; only
// a failure of the initial class-list fetch aborts the run.
func (s *SyncService) SyncTerm(ctx context.Context, termID, termOrgUnitID int, force bool, programFilter string) (*model.SyncResult, error) {
	acquired, err := s.locks.Acquire(ctx, termOrgUnitID)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, ErrSyncInProgress
	}
	defer s.locks.Release(ctx, termOrgUnitID)

	start := time.Now()
	result := &model.SyncResult{}
	runLog := s.log.With().Int("term_id", termID).Int("org_unit_id", termOrgUnitID).Logger()

	if programFilter != "" {
		runLog.Info().Str("program", programFilter).Bool("force", force).Msg("starting class sync")
	} else {
		runLog.Info().Bool("force", force).Msg("starting class sync")
	}

	records, err := s.upstream.FetchClasses(ctx, termOrgUnitID)
	if err != nil {
		result.DurationSeconds = roundSeconds(time.Since(start))
		runLog.Error().Err(err).Msg("class list fetch failed")
		s.recordRun(ctx, termID, result, err)
		return nil, err
	}

	if len(records) == 0 {
		runLog.Warn().Msg("no classes returned by upstream")
		result.DurationSeconds = roundSeconds(time.Since(start))
		return result, nil
	}

	if programFilter != "" {
		records = filterByProgram(records, programFilter)
		runLog.Info().Str("program", programFilter).Int("count", len(records)).Msg("classes filtered by program")
		if len(records) == 0 {
			result.DurationSeconds = roundSeconds(time.Since(start))
			return result, nil
		}
	}

	processed := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			runLog.Warn().Err(err).Msg("sync cancelled mid-run")
			result.DurationSeconds = roundSeconds(time.Since(start))
			s.recordRun(ctx, termID, result, err)
			return result, err
		}

		s.syncOne(ctx, termID, record, force, result, runLog)

		processed++
		if processed%progressLogEvery == 0 {
			pct := int(math.Round(float64(processed) / float64(len(records)) * 100))
			runLog.Info().
				Int("processed", processed).
				Int("total", len(records)).
				Int("percent", pct).
				Msg("sync progress")
		}

		// Backpressure between upstream detail fetches.
		if s.throttle > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.throttle):
			}
		}
	}

	result.DurationSeconds = roundSeconds(time.Since(start))

	if err := s.settings.Set(ctx, model.SettingLastSync, time.Now().Format(lastSyncLayout)); err != nil {
		runLog.Warn().Err(err).Msg("failed to persist last-sync marker")
	}
	s.recordRun(ctx, termID, result, nil)

	runLog.Info().
		Int("total", result.Total).
		Int("new", result.New).
		Int("updated", result.Updated).
		Int("ignored", result.Ignored).
		Int("errors", result.Errors).
		Float64("duration_s", result.DurationSeconds).
		Msg("class sync completed")

	return result, nil
}

// syncOne reconciles a single upstream record. Every failure inside is
// absorbed into the error counter so one broken class never aborts the run.
func (s *SyncService) syncOne(ctx context.Context, termID int, record brightspace.OrgUnit, force bool, result *model.SyncResult, runLog zerolog.Logger) {
	orgUnitID, err := strconv.Atoi(record.Identifier)
	if err != nil || strings.TrimSpace(record.Name) == "" {
		runLog.Warn().Str("identifier", record.Identifier).Msg("malformed upstream record skipped")
		result.Errors++
		return
	}

	name := strings.TrimSpace(record.Name)
	if nameparse.IsWorkGroupPlaceholder(name) {
		result.Ignored++
		return
	}

	code := strings.TrimSpace(record.Code)
	fullName := buildFullName(name, code)

	cls := &model.Class{
		OrgUnitID:        orgUnitID,
		TermID:           termID,
		RegistrationCode: nameparse.ExtractRegistrationCode(fullName),
		FullName:         fullName,
		CourseCode:       code,
	}
	if programCode := nameparse.ExtractProgramCode(fullName); programCode != "" {
		programID, err := s.programs.GetIDByCode(ctx, programCode)
		if err != nil {
			runLog.Warn().Err(err).Str("program", programCode).Msg("program lookup failed")
		} else {
			cls.ProgramID = programID
		}
	}

	classID, inserted, err := s.classes.UpsertByOrgUnit(ctx, cls)
	if err != nil {
		runLog.Error().Err(err).Int("org_unit_id", orgUnitID).Msg("class upsert failed")
		result.Errors++
		return
	}
	result.Total++
	if inserted {
		result.New++
	}

	stale, err := s.needsRefresh(ctx, classID, force)
	if err != nil {
		runLog.Error().Err(err).Int("class_id", classID).Msg("staleness check failed")
		result.Errors++
		return
	}
	if !stale {
		return
	}

	detail := s.fetchClassDetail(ctx, classID, orgUnitID, name)
	affected, err := s.classes.UpdateDetail(ctx, classID, detail)
	if err != nil {
		runLog.Error().Err(err).Int("class_id", classID).Msg("detail update failed")
		result.Errors++
		return
	}
	if affected > 0 && !inserted {
		result.Updated++
	}
}

// needsRefresh applies the staleness rule: forced refresh, a still-pending
// syllabus flag, or a last-refresh older than the cache duration.
func (s *SyncService) needsRefresh(ctx context.Context, classID int, force bool) (bool, error) {
	if force {
		return true, nil
	}
	state, err := s.classes.GetCacheState(ctx, classID)
	if err != nil {
		return false, err
	}
	if state.HasSyllabus == model.SyllabusPending {
		return true, nil
	}
	return time.Since(state.UpdatedAt) >= s.cacheDuration, nil
}

// fetchClassDetail gathers content, grades and announcements for one class.
// Each fetch is recovered independently: a failure in one leaves the others'
// results intact and the corresponding field at its default.
func (s *SyncService) fetchClassDetail(ctx context.Context, classID, orgUnitID int, name string) model.ClassDetail {
	detail := model.NewClassDetail()

	tree, err := s.upstream.FetchContent(ctx, orgUnitID)
	if err != nil {
		s.logDetailError(orgUnitID, name, "content", err)
	} else {
		summary := grades.SummarizeContent(tree)
		detail.HasSyllabus = model.SyllabusNo
		if summary.HasSyllabus {
			detail.HasSyllabus = model.SyllabusYes
		}
		detail.DocumentCount = summary.DocumentCount
		s.cacheRawPayload(ctx, classID, tree, s.cache.PutContent)
	}

	items, err := s.upstream.FetchGradeItems(ctx, orgUnitID)
	if err != nil {
		s.logDetailError(orgUnitID, name, "grades", err)
	} else {
		categories, err := s.upstream.FetchGradeCategories(ctx, orgUnitID)
		if err != nil {
			s.logDetailError(orgUnitID, name, "grade categories", err)
			categories = nil
		}
		detail.FinalGrade = grades.ComputeFinalGrade(items, categories)
		s.cacheRawPayload(ctx, classID, items, s.cache.PutGrades)
	}

	hasWelcome, err := s.upstream.FetchAnnouncementHasWelcome(ctx, orgUnitID)
	if err != nil {
		s.logDetailError(orgUnitID, name, "announcements", err)
	} else if hasWelcome {
		detail.HasWelcome = model.WelcomeYes
	}

	return detail
}

// cacheRawPayload writes a raw upstream payload through to the detail-cache
// tables. Failures only warn: the cache rows are auxiliary.
func (s *SyncService) cacheRawPayload(ctx context.Context, classID int, payload any, put func(context.Context, int, []byte) error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := put(ctx, classID, raw); err != nil {
		s.log.Warn().Err(err).Int("class_id", classID).Msg("detail cache write failed")
	}
}

// logDetailError keeps permission noise quiet: many upstream org units are
// group shells the integration user cannot open, which is expected.
func (s *SyncService) logDetailError(orgUnitID int, name, stage string, err error) {
	var permErr *brightspace.PermissionError
	event := s.log.Warn()
	if errors.As(err, &permErr) {
		event = s.log.Debug()
	}
	event.Err(err).Int("org_unit_id", orgUnitID).Str("class", name).Str("stage", stage).Msg("detail fetch failed")
}

// RefreshClass forces a detail refresh for a single class row.
func (s *SyncService) RefreshClass(ctx context.Context, classID, orgUnitID int) error {
	detail := s.fetchClassDetail(ctx, classID, orgUnitID, "")
	affected, err := s.classes.UpdateDetail(ctx, classID, detail)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrClassNotFound
	}
	return nil
}

// ReadCachedClasses serves the dashboard read path straight from storage,
// deriving the human-readable display name on the way out.
func (s *SyncService) ReadCachedClasses(ctx context.Context, termID int, programFilter string) ([]model.Class, error) {
	classes, err := s.classes.ListByTerm(ctx, termID, programFilter)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		classes[i].DisplayName = nameparse.CleanDisplayName(classes[i].FullName)
	}
	return classes, nil
}

// PurgeCacheOlderThan removes detail-cache payloads older than the given age.
// Maintenance semantics: storage failures are swallowed and reported as a
// zero count.
func (s *SyncService) PurgeCacheOlderThan(ctx context.Context, hours int) int64 {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	deleted, err := s.cache.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("cache purge failed")
		return 0
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Int("hours", hours).Msg("stale detail cache purged")
	}
	return deleted
}

// recordRun appends the audit row for a finished (or aborted) run. A failure
// here only warns; the summary still reaches the caller.
func (s *SyncService) recordRun(ctx context.Context, termID int, result *model.SyncResult, runErr error) {
	entry := &model.SyncLog{
		Kind:            model.SyncKindClasses,
		TermID:          termID,
		Total:           result.Total,
		Succeeded:       result.New + result.Updated,
		Failed:          result.Errors,
		DurationSeconds: result.DurationSeconds,
	}
	if runErr != nil {
		text := runErr.Error()
		entry.ErrorText = &text
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("failed to record sync run")
	}
}

// buildFullName normalizes the stored display name: upstream sometimes sends
// the bare course title, sometimes "CODE - title".
func buildFullName(name, code string) string {
	if strings.Contains(name, " - ") {
		return name
	}
	if code != "" && code != name {
		return code + " - " + name
	}
	return name
}

// filterByProgram keeps records whose name or code contains ".CODE" followed
// by a dash or digit, case-insensitively.
func filterByProgram(records []brightspace.OrgUnit, programCode string) []brightspace.OrgUnit {
	re := regexp.MustCompile(`(?i)\.` + regexp.QuoteMeta(programCode) + `[-\d]`)
	filtered := records[:0:0]
	for _, record := range records {
		if re.MatchString(record.Name) || re.MatchString(record.Code) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
