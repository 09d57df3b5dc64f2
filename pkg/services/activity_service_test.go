package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
	"github.com/trainhub/register-engine/pkg/revisions"
)

type activityServiceFixture struct {
	svc       ActivityService
	activity  *mockActivityRepo
	providers *mockProviderRepo
	provRevs  *mockProviderRevRepo
	userRevs  *mockUserRevRepo
}

// Only the revision tables exercised by a test need mock payloads; the
// remaining slots carry real repositories that are never queried.
func newActivityServiceFixture() *activityServiceFixture {
	f := &activityServiceFixture{
		activity:  &mockActivityRepo{scoped: make(map[string][]*models.ActivityLogEntry)},
		providers: newMockProviderRepo(),
		provRevs:  newMockProviderRevRepo(),
		userRevs:  &mockUserRevRepo{revs: make(map[uuid.UUID]*models.UserRevision)},
	}
	revs := RevisionRepos{
		Provider:                 f.provRevs,
		Accreditation:            repositories.NewAccreditationRevisionRepository(),
		Address:                  repositories.NewAddressRevisionRepository(),
		Contact:                  repositories.NewContactRevisionRepository(),
		Partnership:              repositories.NewPartnershipRevisionRepository(),
		PartnershipYear:          repositories.NewPartnershipYearRevisionRepository(),
		AccreditationPartnership: repositories.NewAccreditationPartnershipRevisionRepository(),
		ProviderYear:             newMockProviderYearRevRepo(),
		AcademicYear:             repositories.NewAcademicYearRevisionRepository(),
		User:                     f.userRevs,
		APIToken:                 repositories.NewAPITokenRevisionRepository(),
	}
	f.svc = NewActivityService(fakeTx{}, f.activity, f.providers, revs, zap.NewNop())
	return f
}

// seedProviderRevision stores a provider plus one revision and the matching
// activity row against the fixture, mirroring what the write path produces.
func (f *activityServiceFixture) seedProviderRevision(t *testing.T, name string, number int, changedAt time.Time) (*models.Provider, *models.ActivityLogEntry) {
	t.Helper()
	ctx := context.Background()

	p := &models.Provider{ID: uuid.New(), OperatingName: name, Type: models.ProviderTypeHEI}
	require.NoError(t, f.providers.Insert(ctx, nil, p))

	rev := p.Snapshot(number, changedAt)
	require.NoError(t, f.provRevs.Insert(ctx, nil, rev))

	entry := &models.ActivityLogEntry{
		ID:             uuid.New(),
		RevisionTable:  models.TableProviderRevisions,
		RevisionID:     rev.ID,
		EntityType:     models.EntityTypeProvider,
		EntityID:       p.ID,
		RevisionNumber: number,
		Action:         revisions.ActionFor(number, nil),
		ChangedAt:      changedAt,
	}
	require.NoError(t, f.activity.Insert(ctx, nil, entry))
	return p, entry
}

func TestActivityServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("renders provider rows with label href and fields", func(t *testing.T) {
		f := newActivityServiceFixture()
		p, _ := f.seedProviderRevision(t, "Coastal University", 1, time.Now().UTC())

		summaries, total, err := f.svc.List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, summaries, 1)

		s := summaries[0]
		assert.Equal(t, "Provider created", s.Activity)
		assert.Equal(t, "Coastal University", s.Label)
		assert.Equal(t, "/providers/"+p.ID.String(), s.Href)
		assert.Equal(t, revisions.ActionCreate, s.Action)
		require.NotEmpty(t, s.Fields)
		assert.Equal(t, models.ActivityField{Key: "type", Value: models.ProviderTypeHEI}, s.Fields[0])
	})

	t.Run("an unknown revision table degrades to a stub", func(t *testing.T) {
		f := newActivityServiceFixture()
		entry := &models.ActivityLogEntry{
			ID:            uuid.New(),
			RevisionTable: "course_revisions",
			RevisionID:    uuid.New(),
			EntityType:    "course",
			EntityID:      uuid.New(),
			Action:        revisions.ActionCreate,
			ChangedAt:     time.Now().UTC(),
		}
		require.NoError(t, f.activity.Insert(ctx, nil, entry))

		summaries, _, err := f.svc.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, labelUnknownRevision, summaries[0].Label)
		assert.Equal(t, "Record created", summaries[0].Activity)
		assert.Empty(t, summaries[0].Fields)
	})

	t.Run("a missing payload degrades without failing the listing", func(t *testing.T) {
		f := newActivityServiceFixture()
		good, _ := f.seedProviderRevision(t, "Coastal University", 1, time.Now().UTC())

		// An activity row pointing at a revision that does not resolve.
		orphan := &models.ActivityLogEntry{
			ID:            uuid.New(),
			RevisionTable: models.TableProviderRevisions,
			RevisionID:    uuid.New(),
			EntityType:    models.EntityTypeProvider,
			EntityID:      uuid.New(),
			Action:        revisions.ActionUpdate,
			ChangedAt:     time.Now().UTC(),
		}
		require.NoError(t, f.activity.Insert(ctx, nil, orphan))

		summaries, _, err := f.svc.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, good.OperatingName, summaries[0].Label)
		assert.Equal(t, labelRevisionUnavailable, summaries[1].Label)
	})

	t.Run("zero limit falls back to the default page size", func(t *testing.T) {
		f := newActivityServiceFixture()
		for i := 0; i < DefaultActivityPageSize+5; i++ {
			f.seedProviderRevision(t, "Provider", 1, time.Now().UTC())
		}

		summaries, total, err := f.svc.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultActivityPageSize+5, total)
		assert.Len(t, summaries, DefaultActivityPageSize)
	})
}

func TestActivityServiceListForUser(t *testing.T) {
	ctx := context.Background()
	f := newActivityServiceFixture()

	actor := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()

	userRev := &models.UserRevision{
		RevisionMeta: models.RevisionMeta{ID: uuid.New(), RevisionNumber: 1, RevisionAt: now, RevisionByID: &actor},
		UserID:       uuid.New(),
		FirstName:    "Priya",
		LastName:     "Shah",
		Email:        "priya.shah@example.org",
		Active:       true,
	}
	f.userRevs.revs[userRev.ID] = userRev

	mine := &models.ActivityLogEntry{
		ID:            uuid.New(),
		RevisionTable: models.TableUserRevisions,
		RevisionID:    userRev.ID,
		EntityType:    models.EntityTypeUser,
		EntityID:      userRev.UserID,
		Action:        revisions.ActionCreate,
		ChangedByID:   &actor,
		ChangedAt:     now,
	}
	theirs := &models.ActivityLogEntry{
		ID:            uuid.New(),
		RevisionTable: models.TableUserRevisions,
		RevisionID:    uuid.New(),
		EntityType:    models.EntityTypeUser,
		EntityID:      uuid.New(),
		Action:        revisions.ActionUpdate,
		ChangedByID:   &other,
		ChangedAt:     now,
	}
	require.NoError(t, f.activity.Insert(ctx, nil, mine))
	require.NoError(t, f.activity.Insert(ctx, nil, theirs))

	summaries, total, err := f.svc.ListForUser(ctx, actor, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Priya Shah", summaries[0].Label)
	assert.Equal(t, "/users/"+userRev.UserID.String(), summaries[0].Href)
	assert.Equal(t, "User created", summaries[0].Activity)
}

func TestActivityServiceListForProvider(t *testing.T) {
	ctx := context.Background()
	f := newActivityServiceFixture()

	p := &models.Provider{ID: uuid.New(), OperatingName: "Coastal University", Type: models.ProviderTypeHEI}
	require.NoError(t, f.providers.Insert(ctx, nil, p))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rev := p.Snapshot(i+1, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, f.provRevs.Insert(ctx, nil, rev))
		entry := &models.ActivityLogEntry{
			ID:             uuid.New(),
			RevisionTable:  models.TableProviderRevisions,
			RevisionID:     rev.ID,
			EntityType:     models.EntityTypeProvider,
			EntityID:       p.ID,
			RevisionNumber: i + 1,
			Action:         revisions.ActionFor(i+1, nil),
			ChangedAt:      rev.RevisionAt,
		}
		f.activity.scoped[models.TableProviderRevisions] = append(f.activity.scoped[models.TableProviderRevisions], entry)
	}

	t.Run("merges scoped tables newest first", func(t *testing.T) {
		summaries, total, err := f.svc.ListForProvider(ctx, p.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, summaries, 3)
		assert.Equal(t, 3, summaries[0].RevisionNumber)
		assert.Equal(t, 1, summaries[2].RevisionNumber)
		assert.True(t, summaries[0].ChangedAt.After(summaries[2].ChangedAt))
	})

	t.Run("paginates the merged feed in memory", func(t *testing.T) {
		summaries, total, err := f.svc.ListForProvider(ctx, p.ID, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, summaries, 1)
		assert.Equal(t, 1, summaries[0].RevisionNumber)
	})

	t.Run("an offset past the feed returns an empty page with the total", func(t *testing.T) {
		summaries, total, err := f.svc.ListForProvider(ctx, p.ID, 10, 50)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Empty(t, summaries)
	})
}

func TestActivityServiceListForEntity(t *testing.T) {
	ctx := context.Background()
	f := newActivityServiceFixture()

	target, _ := f.seedProviderRevision(t, "Coastal University", 1, time.Now().UTC())
	f.seedProviderRevision(t, "Harbour SCITT", 1, time.Now().UTC())

	summaries, err := f.svc.ListForEntity(ctx, models.EntityTypeProvider, target.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, target.ID, summaries[0].EntityID)
	assert.Equal(t, "Coastal University", summaries[0].Label)
}

func TestActivityServiceLatestRevision(t *testing.T) {
	ctx := context.Background()
	f := newActivityServiceFixture()

	p := &models.Provider{ID: uuid.New(), OperatingName: "Coastal University", Type: models.ProviderTypeHEI}
	require.NoError(t, f.providers.Insert(ctx, nil, p))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		rev := p.Snapshot(i+1, base.Add(time.Duration(i)*time.Hour))
		if i == 1 {
			rev.OperatingName = "Coastal University and College"
		}
		require.NoError(t, f.provRevs.Insert(ctx, nil, rev))
		require.NoError(t, f.activity.Insert(ctx, nil, &models.ActivityLogEntry{
			ID:             uuid.New(),
			RevisionTable:  models.TableProviderRevisions,
			RevisionID:     rev.ID,
			EntityType:     models.EntityTypeProvider,
			EntityID:       p.ID,
			RevisionNumber: i + 1,
			Action:         revisions.ActionFor(i+1, nil),
			ChangedAt:      rev.RevisionAt,
		}))
	}

	t.Run("returns the newest snapshot", func(t *testing.T) {
		rec, err := f.svc.LatestRevision(ctx, models.EntityTypeProvider, p.ID)
		require.NoError(t, err)
		rev, ok := rec.(*models.ProviderRevision)
		require.True(t, ok)
		assert.Equal(t, 2, rev.RevisionNumber)
		assert.Equal(t, "Coastal University and College", rev.OperatingName)
	})

	t.Run("an entity with no history is not found", func(t *testing.T) {
		_, err := f.svc.LatestRevision(ctx, models.EntityTypeProvider, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestActivityText(t *testing.T) {
	assert.Equal(t, "Provider created", activityText(models.EntityTypeProvider, revisions.ActionCreate))
	assert.Equal(t, "Accreditation updated", activityText(models.EntityTypeProviderAccreditation, revisions.ActionUpdate))
	assert.Equal(t, "Partnership deleted", activityText(models.EntityTypeProviderPartnership, revisions.ActionDelete))
	assert.Equal(t, "Record created", activityText("mystery", revisions.ActionCreate))
}
