package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeUpstream struct {
	terms      []brightspace.OrgUnit
	termsErr   error
	classes    []brightspace.OrgUnit
	classesErr error

	content    map[int]*brightspace.ContentTree
	contentErr error
	gradeItems map[int][]brightspace.GradeItem
	welcome    map[int]bool

	detailFetches int
}

func (f *fakeUpstream) FetchTerms(context.Context) ([]brightspace.OrgUnit, error) {
	return f.terms, f.termsErr
}

func (f *fakeUpstream) FetchClasses(context.Context, int) ([]brightspace.OrgUnit, error) {
	return f.classes, f.classesErr
}

func (f *fakeUpstream) FetchContent(_ context.Context, orgUnitID int) (*brightspace.ContentTree, error) {
	f.detailFetches++
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	if tree, ok := f.content[orgUnitID]; ok {
		return tree, nil
	}
	return &brightspace.ContentTree{}, nil
}

func (f *fakeUpstream) FetchGradeItems(_ context.Context, orgUnitID int) ([]brightspace.GradeItem, error) {
	return f.gradeItems[orgUnitID], nil
}

func (f *fakeUpstream) FetchGradeCategories(context.Context, int) ([]brightspace.GradeCategory, error) {
	return nil, nil
}

func (f *fakeUpstream) FetchAnnouncementHasWelcome(_ context.Context, orgUnitID int) (bool, error) {
	return f.welcome[orgUnitID], nil
}

type fakeLocker struct {
	busy     bool
	acquires int
	releases int
}

func (f *fakeLocker) Acquire(context.Context, int) (bool, error) {
	f.acquires++
	return !f.busy, nil
}

func (f *fakeLocker) Release(context.Context, int) { f.releases++ }

type fakeTermStore struct {
	upserts []model.Term
}

func (f *fakeTermStore) UpsertByOrgUnit(_ context.Context, t *model.Term) (int, error) {
	f.upserts = append(f.upserts, *t)
	return len(f.upserts), nil
}

type classRow struct {
	class       model.Class
	hasSyllabus string
	refreshedAt time.Time
}

type fakeClassStore struct {
	nextID int
	rows   map[int]*classRow // keyed by local id
	byOrg  map[int]int       // org unit id -> local id
}

func newFakeClassStore() *fakeClassStore {
	return &fakeClassStore{rows: make(map[int]*classRow), byOrg: make(map[int]int)}
}

func (f *fakeClassStore) UpsertByOrgUnit(_ context.Context, c *model.Class) (int, bool, error) {
	if id, ok := f.byOrg[c.OrgUnitID]; ok {
		row := f.rows[id]
		row.class.TermID = c.TermID
		row.class.FullName = c.FullName
		row.class.RegistrationCode = c.RegistrationCode
		row.class.ProgramID = c.ProgramID
		c.ID = id
		return id, false, nil
	}
	f.nextID++
	c.ID = f.nextID
	f.rows[f.nextID] = &classRow{
		class:       *c,
		hasSyllabus: model.SyllabusPending,
		refreshedAt: time.Now(),
	}
	f.byOrg[c.OrgUnitID] = f.nextID
	return f.nextID, true, nil
}

func (f *fakeClassStore) GetCacheState(_ context.Context, id int) (*repository.CacheState, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, errors.New("no such class")
	}
	return &repository.CacheState{HasSyllabus: row.hasSyllabus, UpdatedAt: row.refreshedAt}, nil
}

func (f *fakeClassStore) UpdateDetail(_ context.Context, id int, d model.ClassDetail) (int64, error) {
	row, ok := f.rows[id]
	if !ok {
		return 0, nil
	}
	row.hasSyllabus = d.HasSyllabus
	row.class.HasSyllabus = d.HasSyllabus
	row.class.FinalGrade = d.FinalGrade
	row.class.DocumentCount = d.DocumentCount
	row.class.HasWelcome = d.HasWelcome
	row.refreshedAt = time.Now()
	return 1, nil
}

func (f *fakeClassStore) ListByTerm(_ context.Context, termID int, _ string) ([]model.Class, error) {
	var out []model.Class
	for _, row := range f.rows {
		if row.class.TermID == termID {
			out = append(out, row.class)
		}
	}
	return out, nil
}

type fakeProgramStore struct {
	ids map[string]int
}

func (f *fakeProgramStore) GetIDByCode(_ context.Context, code string) (*int, error) {
	if id, ok := f.ids[code]; ok {
		return &id, nil
	}
	return nil, nil
}

type fakeSyncLogStore struct {
	entries []model.SyncLog
}

func (f *fakeSyncLogStore) Insert(_ context.Context, l *model.SyncLog) error {
	f.entries = append(f.entries, *l)
	return nil
}

type fakeSettingStore struct {
	values map[string]string
}

func (f *fakeSettingStore) Set(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[key] = value
	return nil
}

type fakeDetailCacheStore struct {
	contentWrites int
	gradeWrites   int
	purged        int64
	purgeErr      error
}

func (f *fakeDetailCacheStore) PutContent(context.Context, int, []byte) error {
	f.contentWrites++
	return nil
}

func (f *fakeDetailCacheStore) PutGrades(context.Context, int, []byte) error {
	f.gradeWrites++
	return nil
}

func (f *fakeDetailCacheStore) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return f.purged, f.purgeErr
}

// ─── Harness ────────────────────────────────────────────────────────────────

type syncFixture struct {
	upstream *fakeUpstream
	terms    *fakeTermStore
	classes  *fakeClassStore
	programs *fakeProgramStore
	logs     *fakeSyncLogStore
	settings *fakeSettingStore
	cache    *fakeDetailCacheStore
	locker   *fakeLocker
	svc      *SyncService
}

func newSyncFixture(upstream *fakeUpstream) *syncFixture {
	fx := &syncFixture{
		upstream: upstream,
		terms:    &fakeTermStore{},
		classes:  newFakeClassStore(),
		programs: &fakeProgramStore{ids: map[string]int{"ADM": 7}},
		logs:     &fakeSyncLogStore{},
		settings: &fakeSettingStore{},
		cache:    &fakeDetailCacheStore{},
		locker:   &fakeLocker{},
	}
	fx.svc = &SyncService{
		upstream:      upstream,
		terms:         fx.terms,
		classes:       fx.classes,
		programs:      fx.programs,
		logs:          fx.logs,
		settings:      fx.settings,
		cache:         fx.cache,
		locks:         fx.locker,
		cacheDuration: 6 * time.Hour,
		throttle:      0,
		log:           zerolog.Nop(),
	}
	return fx
}

func syllabusTree() *brightspace.ContentTree {
	return &brightspace.ContentTree{
		Modules: []brightspace.ContentModule{
			{Title: "General", Topics: []brightspace.ContentTopic{
				{Title: "Syllabus.pdf", TypeIdentifier: "File"},
				{Title: "Plan.pdf", TypeIdentifier: "File"},
			}},
		},
	}
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestSyncTermFirstRun(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{
		classes: []brightspace.OrgUnit{
			{Identifier: "101", Name: "25.S3.ADM-4010 - ADMINISTRACIÓN I", Code: "25.S3.ADM.3410"},
			{Identifier: "102", Name: "FUNDAMENTOS DE MARKETING (3411)", Code: "MKT3411"},
			{Identifier: "103", Name: "Group 1"},
		},
		content: map[int]*brightspace.ContentTree{101: syllabusTree()},
		gradeItems: map[int][]brightspace.GradeItem{
			101: {{MaxPoints: 40, GradeType: "Numeric"}, {MaxPoints: 60, GradeType: "Numeric"}},
		},
		welcome: map[int]bool{101: true},
	})

	result, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "")
	if err != nil {
		t.Fatalf("SyncTerm: %v", err)
	}

	if result.Total != 2 || result.New != 2 || result.Updated != 0 || result.Ignored != 1 || result.Errors != 0 {
		t.Errorf("result = %+v, want total=2 new=2 updated=0 ignored=1 errors=0", result)
	}

	// New rows start PENDIENTE, so both get their detail fetched.
	id, ok := fx.classes.byOrg[101]
	if !ok {
		t.Fatal("class 101 not stored")
	}
	row := fx.classes.rows[id]
	if row.class.HasSyllabus != model.SyllabusYes {
		t.Errorf("class 101 syllabus = %q, want %q", row.class.HasSyllabus, model.SyllabusYes)
	}
	if row.class.DocumentCount != 2 {
		t.Errorf("class 101 documents = %d, want 2", row.class.DocumentCount)
	}
	if row.class.FinalGrade != 100 {
		t.Errorf("class 101 final grade = %v, want 100", row.class.FinalGrade)
	}
	if row.class.HasWelcome != model.WelcomeYes {
		t.Errorf("class 101 welcome = %q, want %q", row.class.HasWelcome, model.WelcomeYes)
	}
	if row.class.ProgramID == nil || *row.class.ProgramID != 7 {
		t.Errorf("class 101 program id = %v, want 7", row.class.ProgramID)
	}

	// Class 102 had no content: the 404-as-empty path must still resolve the
	// pending flag to a definitive NO.
	row102 := fx.classes.rows[fx.classes.byOrg[102]]
	if row102.class.HasSyllabus != model.SyllabusNo {
		t.Errorf("class 102 syllabus = %q, want %q", row102.class.HasSyllabus, model.SyllabusNo)
	}

	if fx.cache.contentWrites != 2 || fx.cache.gradeWrites != 2 {
		t.Errorf("cache writes = (%d, %d), want (2, 2)", fx.cache.contentWrites, fx.cache.gradeWrites)
	}
	if _, ok := fx.settings.values[model.SettingLastSync]; !ok {
		t.Error("last-sync marker not written")
	}
	if len(fx.logs.entries) != 1 {
		t.Fatalf("run logs = %d, want 1", len(fx.logs.entries))
	}
	entry := fx.logs.entries[0]
	if entry.Kind != model.SyncKindClasses || entry.TermID != 1 || entry.Total != 2 || entry.ErrorText != nil {
		t.Errorf("run log = %+v, want kind=CLASES term=1 total=2 no error", entry)
	}
	if fx.locker.acquires != 1 || fx.locker.releases != 1 {
		t.Errorf("lock acquire/release = %d/%d, want 1/1", fx.locker.acquires, fx.locker.releases)
	}
}

func TestSyncTermSecondRunIsIdempotent(t *testing.T) {
	upstream := &fakeUpstream{
		classes: []brightspace.OrgUnit{
			{Identifier: "101", Name: "25.S3.ADM-4010 - ADMINISTRACIÓN I"},
		},
		content: map[int]*brightspace.ContentTree{101: syllabusTree()},
	}
	fx := newSyncFixture(upstream)
	ctx := context.Background()

	if _, err := fx.svc.SyncTerm(ctx, 1, 5000, false, ""); err != nil {
		t.Fatalf("first run: %v", err)
	}
	fetchesAfterFirst := upstream.detailFetches

	result, err := fx.svc.SyncTerm(ctx, 1, 5000, false, "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if result.Total != 1 || result.New != 0 || result.Updated != 0 || result.Errors != 0 {
		t.Errorf("second run = %+v, want total=1 new=0 updated=0 errors=0", result)
	}
	// Fresh rows within the cache window are not re-fetched.
	if upstream.detailFetches != fetchesAfterFirst {
		t.Errorf("detail fetches = %d, want %d (no refetch)", upstream.detailFetches, fetchesAfterFirst)
	}
}

func TestSyncTermForceRefreshesEverything(t *testing.T) {
	upstream := &fakeUpstream{
		classes: []brightspace.OrgUnit{
			{Identifier: "101", Name: "25.S3.ADM-4010 - ADMINISTRACIÓN I"},
			{Identifier: "102", Name: "FUNDAMENTOS DE MARKETING (3411)"},
		},
	}
	fx := newSyncFixture(upstream)
	ctx := context.Background()

	if _, err := fx.svc.SyncTerm(ctx, 1, 5000, false, ""); err != nil {
		t.Fatalf("first run: %v", err)
	}

	result, err := fx.svc.SyncTerm(ctx, 1, 5000, true, "")
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}

	if result.New != 0 || result.Updated != 2 {
		t.Errorf("forced run = %+v, want new=0 updated=2", result)
	}
}

func TestSyncTermProgramFilter(t *testing.T) {
	upstream := &fakeUpstream{
		classes: []brightspace.OrgUnit{
			{Identifier: "101", Name: "25.S3.ADM-4010 - ADMINISTRACIÓN I"},
			{Identifier: "102", Name: "25.S3.MKT-3411 - MARKETING DIGITAL"},
		},
	}
	fx := newSyncFixture(upstream)

	result, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "adm")
	if err != nil {
		t.Fatalf("SyncTerm: %v", err)
	}

	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}
	if _, ok := fx.classes.byOrg[102]; ok {
		t.Error("MKT class stored despite ADM filter")
	}
}

func TestSyncTermFetchFailureRecordsRun(t *testing.T) {
	wantErr := &brightspace.UpstreamError{StatusCode: 502, URL: "/descendants/"}
	fx := newSyncFixture(&fakeUpstream{classesErr: wantErr})

	_, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	if len(fx.logs.entries) != 1 {
		t.Fatalf("run logs = %d, want 1", len(fx.logs.entries))
	}
	entry := fx.logs.entries[0]
	if entry.ErrorText == nil || *entry.ErrorText == "" {
		t.Error("failed run log has no error text")
	}
	if fx.locker.releases != 1 {
		t.Errorf("lock releases = %d, want 1", fx.locker.releases)
	}
}

func TestSyncTermLockContention(t *testing.T) {
	upstream := &fakeUpstream{
		classes: []brightspace.OrgUnit{{Identifier: "101", Name: "X (1234)"}},
	}
	fx := newSyncFixture(upstream)
	fx.locker.busy = true

	_, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "")
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("err = %v, want ErrSyncInProgress", err)
	}
	if len(fx.classes.rows) != 0 {
		t.Error("classes written despite held lock")
	}
	if len(fx.logs.entries) != 0 {
		t.Error("run log written despite held lock")
	}
}

func TestSyncTermEmptyUpstreamWritesNoRunLog(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{})

	result, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "")
	if err != nil {
		t.Fatalf("SyncTerm: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("total = %d, want 0", result.Total)
	}
	if len(fx.logs.entries) != 0 {
		t.Errorf("run logs = %d, want 0", len(fx.logs.entries))
	}
}

func TestSyncTermDetailFailureLeavesPending(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{
		classes:    []brightspace.OrgUnit{{Identifier: "101", Name: "X (1234)"}},
		contentErr: &brightspace.PermissionError{URL: "/content/toc"},
	})

	result, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "")
	if err != nil {
		t.Fatalf("SyncTerm: %v", err)
	}

	// A blocked detail fetch is absorbed: the class row survives and the
	// syllabus flag stays pending for the next run to retry.
	if result.Errors != 0 || result.Total != 1 {
		t.Errorf("result = %+v, want total=1 errors=0", result)
	}
	row := fx.classes.rows[fx.classes.byOrg[101]]
	if row.class.HasSyllabus != model.SyllabusPending {
		t.Errorf("syllabus = %q, want %q", row.class.HasSyllabus, model.SyllabusPending)
	}
}

func TestSyncTermMalformedRecordCountsError(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{
		classes: []brightspace.OrgUnit{
			{Identifier: "abc", Name: "BROKEN"},
			{Identifier: "101", Name: "X (1234)"},
		},
	})

	result, err := fx.svc.SyncTerm(context.Background(), 1, 5000, false, "")
	if err != nil {
		t.Fatalf("SyncTerm: %v", err)
	}
	if result.Errors != 1 || result.Total != 1 {
		t.Errorf("result = %+v, want total=1 errors=1", result)
	}
}

func TestSyncTerms(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{
		terms: []brightspace.OrgUnit{
			{Identifier: "5001", Name: "MAYO - AGOSTO 2025", Code: "2025-2"},
			{Identifier: "oops", Name: "BROKEN"},
			{Identifier: "5002", Name: "SEPTIEMBRE - DICIEMBRE 2025", Code: "2025-3"},
		},
	})

	count, err := fx.svc.SyncTerms(context.Background())
	if err != nil {
		t.Fatalf("SyncTerms: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(fx.terms.upserts) != 2 || fx.terms.upserts[0].OrgUnitID != 5001 {
		t.Errorf("upserts = %+v, want 2 rows starting with 5001", fx.terms.upserts)
	}
}

func TestRefreshClassUnknownRow(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{})

	err := fx.svc.RefreshClass(context.Background(), 999, 101)
	if !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("err = %v, want ErrClassNotFound", err)
	}
}

func TestPurgeCacheSwallowsStorageErrors(t *testing.T) {
	fx := newSyncFixture(&fakeUpstream{})
	fx.cache.purgeErr = errors.New("disk on fire")

	if got := fx.svc.PurgeCacheOlderThan(context.Background(), 24); got != 0 {
		t.Errorf("purge = %d, want 0", got)
	}

	fx.cache.purgeErr = nil
	fx.cache.purged = 5
	if got := fx.svc.PurgeCacheOlderThan(context.Background(), 24); got != 5 {
		t.Errorf("purge = %d, want 5", got)
	}
}
