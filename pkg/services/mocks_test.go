package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
)

// fakeTx runs the transaction body directly. The mocks below never touch the
// Querier, so passing nil through is fine.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, q database.Querier) error) error {
	return fn(ctx, nil)
}

type mockProviderRepo struct {
	providers map[uuid.UUID]*models.Provider
	inserts   int
	updates   int
	namesErr  error
}

func newMockProviderRepo() *mockProviderRepo {
	return &mockProviderRepo{providers: make(map[uuid.UUID]*models.Provider)}
}

func (m *mockProviderRepo) Insert(_ context.Context, _ database.Querier, p *models.Provider) error {
	cp := *p
	m.providers[p.ID] = &cp
	m.inserts++
	return nil
}

func (m *mockProviderRepo) Update(_ context.Context, _ database.Querier, p *models.Provider) error {
	cp := *p
	m.providers[p.ID] = &cp
	m.updates++
	return nil
}

func (m *mockProviderRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProviderRepo) Lock(context.Context, database.Querier, uuid.UUID) error { return nil }

func (m *mockProviderRepo) List(_ context.Context, _ database.Querier, limit, offset int) ([]*models.Provider, error) {
	out := make([]*models.Provider, 0, len(m.providers))
	for _, p := range m.providers {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperatingName < out[j].OperatingName })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProviderRepo) NamesByIDs(_ context.Context, _ database.Querier, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if m.namesErr != nil {
		return nil, m.namesErr
	}
	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if p, ok := m.providers[id]; ok {
			names[id] = p.OperatingName
		}
	}
	return names, nil
}

type mockProviderRevRepo struct {
	revs map[uuid.UUID][]*models.ProviderRevision
}

func newMockProviderRevRepo() *mockProviderRevRepo {
	return &mockProviderRevRepo{revs: make(map[uuid.UUID][]*models.ProviderRevision)}
}

func (m *mockProviderRevRepo) Insert(_ context.Context, _ database.Querier, rev *models.ProviderRevision) error {
	m.revs[rev.ProviderID] = append(m.revs[rev.ProviderID], rev)
	return nil
}

func (m *mockProviderRevRepo) Latest(_ context.Context, _ database.Querier, providerID uuid.UUID) (*models.ProviderRevision, error) {
	revs := m.revs[providerID]
	if len(revs) == 0 {
		return nil, nil
	}
	return revs[len(revs)-1], nil
}

func (m *mockProviderRevRepo) GetByIDs(_ context.Context, _ database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderRevision, error) {
	out := make(map[uuid.UUID]*models.ProviderRevision)
	for _, revs := range m.revs {
		for _, rev := range revs {
			for _, id := range ids {
				if rev.ID == id {
					out[id] = rev
				}
			}
		}
	}
	return out, nil
}

func (m *mockProviderRevRepo) byProvider(providerID uuid.UUID) []*models.ProviderRevision {
	return m.revs[providerID]
}

type mockActivityRepo struct {
	entries   []*models.ActivityLogEntry
	scoped    map[string][]*models.ActivityLogEntry
	insertErr error
}

func (m *mockActivityRepo) Insert(_ context.Context, _ database.Querier, e *models.ActivityLogEntry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, _ database.Querier, limit, offset int) ([]*models.ActivityLogEntry, error) {
	out := m.entries
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockActivityRepo) Count(context.Context, database.Querier) (int, error) {
	return len(m.entries), nil
}

func (m *mockActivityRepo) ListByActor(_ context.Context, _ database.Querier, actorID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	var out []*models.ActivityLogEntry
	for _, e := range m.entries {
		if e.ChangedByID != nil && *e.ChangedByID == actorID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockActivityRepo) CountByActor(_ context.Context, _ database.Querier, actorID uuid.UUID) (int, error) {
	n := 0
	for _, e := range m.entries {
		if e.ChangedByID != nil && *e.ChangedByID == actorID {
			n++
		}
	}
	return n, nil
}

// ListForEntity returns newest first, like the real repository.
func (m *mockActivityRepo) ListForEntity(_ context.Context, _ database.Querier, entityType string, entityID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	var out []*models.ActivityLogEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	return out, nil
}

func (m *mockActivityRepo) ListForProviderScope(_ context.Context, _ database.Querier, scope repositories.ProviderScope, _ uuid.UUID) ([]*models.ActivityLogEntry, error) {
	return m.scoped[scope.Table], nil
}

func (m *mockActivityRepo) CountForProviderScope(_ context.Context, _ database.Querier, scope repositories.ProviderScope, _ uuid.UUID) (int, error) {
	return len(m.scoped[scope.Table]), nil
}

type mockAccreditationRepo struct {
	current map[uuid.UUID]bool
	gained  []uuid.UUID
	lapsed  []uuid.UUID
}

func (m *mockAccreditationRepo) Insert(context.Context, database.Querier, *models.ProviderAccreditation) error {
	return nil
}

func (m *mockAccreditationRepo) Update(context.Context, database.Querier, *models.ProviderAccreditation) error {
	return nil
}

func (m *mockAccreditationRepo) GetByID(context.Context, database.Querier, uuid.UUID) (*models.ProviderAccreditation, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockAccreditationRepo) Lock(context.Context, database.Querier, uuid.UUID) error {
	return nil
}

func (m *mockAccreditationRepo) ListByProvider(context.Context, database.Querier, uuid.UUID) ([]*models.ProviderAccreditation, error) {
	return nil, nil
}

func (m *mockAccreditationRepo) HasCurrent(_ context.Context, _ database.Querier, providerID uuid.UUID, _ time.Time) (bool, error) {
	return m.current[providerID], nil
}

func (m *mockAccreditationRepo) NewlyAccredited(context.Context, database.Querier, time.Time) ([]uuid.UUID, error) {
	return m.gained, nil
}

func (m *mockAccreditationRepo) NewlyLapsed(context.Context, database.Querier, time.Time) ([]uuid.UUID, error) {
	return m.lapsed, nil
}

type mockAcademicYearRepo struct {
	years map[uuid.UUID]*models.AcademicYear
	links map[uuid.UUID]*models.ProviderAcademicYear

	linkInserts int
	linkUpdates int
}

func newMockAcademicYearRepo() *mockAcademicYearRepo {
	return &mockAcademicYearRepo{
		years: make(map[uuid.UUID]*models.AcademicYear),
		links: make(map[uuid.UUID]*models.ProviderAcademicYear),
	}
}

func (m *mockAcademicYearRepo) Insert(_ context.Context, _ database.Querier, y *models.AcademicYear) error {
	cp := *y
	m.years[y.ID] = &cp
	return nil
}

func (m *mockAcademicYearRepo) Update(_ context.Context, _ database.Querier, y *models.AcademicYear) error {
	cp := *y
	m.years[y.ID] = &cp
	return nil
}

func (m *mockAcademicYearRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.AcademicYear, error) {
	y, ok := m.years[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *y
	return &cp, nil
}

func (m *mockAcademicYearRepo) Lock(context.Context, database.Querier, uuid.UUID) error { return nil }

func (m *mockAcademicYearRepo) List(context.Context, database.Querier) ([]*models.AcademicYear, error) {
	out := make([]*models.AcademicYear, 0, len(m.years))
	for _, y := range m.years {
		cp := *y
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockAcademicYearRepo) InsertProviderLink(_ context.Context, _ database.Querier, l *models.ProviderAcademicYear) error {
	cp := *l
	m.links[l.ID] = &cp
	m.linkInserts++
	return nil
}

func (m *mockAcademicYearRepo) UpdateProviderLink(_ context.Context, _ database.Querier, l *models.ProviderAcademicYear) error {
	cp := *l
	m.links[l.ID] = &cp
	m.linkUpdates++
	return nil
}

func (m *mockAcademicYearRepo) GetProviderLink(_ context.Context, _ database.Querier, id uuid.UUID) (*models.ProviderAcademicYear, error) {
	l, ok := m.links[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockAcademicYearRepo) FindProviderLink(_ context.Context, _ database.Querier, providerID, academicYearID uuid.UUID) (*models.ProviderAcademicYear, error) {
	for _, l := range m.links {
		if l.ProviderID == providerID && l.AcademicYearID == academicYearID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockAcademicYearRepo) ListProviderLinks(_ context.Context, _ database.Querier, providerID uuid.UUID) ([]*models.ProviderAcademicYear, error) {
	var out []*models.ProviderAcademicYear
	for _, l := range m.links {
		if l.ProviderID == providerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockProviderYearRevRepo struct {
	revs map[uuid.UUID][]*models.ProviderAcademicYearRevision
}

func newMockProviderYearRevRepo() *mockProviderYearRevRepo {
	return &mockProviderYearRevRepo{revs: make(map[uuid.UUID][]*models.ProviderAcademicYearRevision)}
}

func (m *mockProviderYearRevRepo) Insert(_ context.Context, _ database.Querier, rev *models.ProviderAcademicYearRevision) error {
	m.revs[rev.ProviderAcademicYearID] = append(m.revs[rev.ProviderAcademicYearID], rev)
	return nil
}

func (m *mockProviderYearRevRepo) Latest(_ context.Context, _ database.Querier, linkID uuid.UUID) (*models.ProviderAcademicYearRevision, error) {
	revs := m.revs[linkID]
	if len(revs) == 0 {
		return nil, nil
	}
	return revs[len(revs)-1], nil
}

func (m *mockProviderYearRevRepo) GetByIDs(_ context.Context, _ database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAcademicYearRevision, error) {
	out := make(map[uuid.UUID]*models.ProviderAcademicYearRevision)
	for _, revs := range m.revs {
		for _, rev := range revs {
			for _, id := range ids {
				if rev.ID == id {
					out[id] = rev
				}
			}
		}
	}
	return out, nil
}

type mockUserRevRepo struct {
	revs map[uuid.UUID]*models.UserRevision
}

func (m *mockUserRevRepo) Insert(context.Context, database.Querier, *models.UserRevision) error {
	return nil
}

func (m *mockUserRevRepo) Latest(context.Context, database.Querier, uuid.UUID) (*models.UserRevision, error) {
	return nil, nil
}

func (m *mockUserRevRepo) GetByIDs(_ context.Context, _ database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.UserRevision, error) {
	out := make(map[uuid.UUID]*models.UserRevision)
	for _, id := range ids {
		if rev, ok := m.revs[id]; ok {
			out[id] = rev
		}
	}
	return out, nil
}
