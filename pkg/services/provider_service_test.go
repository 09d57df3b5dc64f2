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
	"github.com/trainhub/register-engine/pkg/revisions"
)

type providerServiceFixture struct {
	svc       ProviderService
	providers *mockProviderRepo
	revs      *mockProviderRevRepo
	years     *mockAcademicYearRepo
	yearRevs  *mockProviderYearRevRepo
	activity  *mockActivityRepo
}

func newProviderServiceFixture() *providerServiceFixture {
	f := &providerServiceFixture{
		providers: newMockProviderRepo(),
		revs:      newMockProviderRevRepo(),
		years:     newMockAcademicYearRepo(),
		yearRevs:  newMockProviderYearRevRepo(),
		activity:  &mockActivityRepo{},
	}
	writer := newRevisionWriter(f.activity, zap.NewNop())
	f.svc = NewProviderService(fakeTx{}, f.providers, f.revs, f.years, f.yearRevs, writer, zap.NewNop())
	return f
}

func strPtr(s string) *string { return &s }

func TestProviderServiceCreate(t *testing.T) {
	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	t.Run("writes the provider with revision 1 and a create entry", func(t *testing.T) {
		f := newProviderServiceFixture()

		p, err := f.svc.Create(ctx, ProviderInput{
			OperatingName: "Coastal University",
			LegalName:     strPtr("Coastal University Trust"),
			Type:          models.ProviderTypeHEI,
			UKPRN:         strPtr("12345678"),
		})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, &actor, p.CreatedByID)

		revs := f.revs.byProvider(p.ID)
		require.Len(t, revs, 1)
		assert.Equal(t, 1, revs[0].RevisionNumber)
		assert.Equal(t, "Coastal University", revs[0].OperatingName)
		assert.Equal(t, &actor, revs[0].RevisionByID)

		require.Len(t, f.activity.entries, 1)
		entry := f.activity.entries[0]
		assert.Equal(t, revisions.ActionCreate, entry.Action)
		assert.Equal(t, models.EntityTypeProvider, entry.EntityType)
		assert.Equal(t, p.ID, entry.EntityID)
		assert.Equal(t, revs[0].ID, entry.RevisionID)
	})

	t.Run("rejects a missing operating name", func(t *testing.T) {
		f := newProviderServiceFixture()
		_, err := f.svc.Create(ctx, ProviderInput{Type: models.ProviderTypeHEI})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Zero(t, f.providers.inserts)
	})

	t.Run("rejects an unknown provider type", func(t *testing.T) {
		f := newProviderServiceFixture()
		_, err := f.svc.Create(ctx, ProviderInput{OperatingName: "Coastal", Type: "academy"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestProviderServiceUpdate(t *testing.T) {
	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	create := func(t *testing.T, f *providerServiceFixture) *models.Provider {
		t.Helper()
		p, err := f.svc.Create(ctx, ProviderInput{OperatingName: "Coastal University", Type: models.ProviderTypeHEI})
		require.NoError(t, err)
		return p
	}

	t.Run("a change writes revision 2 with action update", func(t *testing.T) {
		f := newProviderServiceFixture()
		p := create(t, f)

		updated, err := f.svc.Update(ctx, p.ID, ProviderInput{
			OperatingName: "Coastal University and College",
			Type:          models.ProviderTypeHEI,
		})
		require.NoError(t, err)
		assert.Equal(t, "Coastal University and College", updated.OperatingName)

		revs := f.revs.byProvider(p.ID)
		require.Len(t, revs, 2)
		assert.Equal(t, 2, revs[1].RevisionNumber)
		require.Len(t, f.activity.entries, 2)
		assert.Equal(t, revisions.ActionUpdate, f.activity.entries[1].Action)
		assert.Equal(t, 1, f.providers.updates)
	})

	t.Run("an identical save leaves no trace", func(t *testing.T) {
		f := newProviderServiceFixture()
		p := create(t, f)

		_, err := f.svc.Update(ctx, p.ID, ProviderInput{OperatingName: "Coastal University", Type: models.ProviderTypeHEI})
		require.NoError(t, err)

		assert.Len(t, f.revs.byProvider(p.ID), 1)
		assert.Len(t, f.activity.entries, 1)
		assert.Zero(t, f.providers.updates)
	})

	t.Run("a deleted provider is not found", func(t *testing.T) {
		f := newProviderServiceFixture()
		p := create(t, f)
		require.NoError(t, f.svc.Delete(ctx, p.ID))

		_, err := f.svc.Update(ctx, p.ID, ProviderInput{OperatingName: "New Name", Type: models.ProviderTypeHEI})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestProviderServiceArchiveAndDelete(t *testing.T) {
	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	f := newProviderServiceFixture()
	p, err := f.svc.Create(ctx, ProviderInput{OperatingName: "Coastal University", Type: models.ProviderTypeSCITT})
	require.NoError(t, err)

	archived, err := f.svc.Archive(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)
	assert.Equal(t, &actor, archived.ArchivedByID)
	assert.Len(t, f.revs.byProvider(p.ID), 2)

	// Archiving again changes nothing besides the timestamp instant, which is
	// tracked, so a second archive within the same test still revisions. Use
	// unarchive to check the reverse transition instead.
	restored, err := f.svc.Unarchive(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.ArchivedAt)
	assert.Len(t, f.revs.byProvider(p.ID), 3)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	revs := f.revs.byProvider(p.ID)
	require.Len(t, revs, 4)
	assert.NotNil(t, revs[3].DeletedAt)
	assert.Equal(t, revisions.ActionDelete, f.activity.entries[3].Action)

	_, err = f.svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = f.svc.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProviderServiceSetAccreditationFlag(t *testing.T) {
	ctx := context.Background()

	f := newProviderServiceFixture()
	p, err := f.svc.Create(ctx, ProviderInput{OperatingName: "Coastal University", Type: models.ProviderTypeHEI})
	require.NoError(t, err)

	t.Run("flipping the flag writes a revision", func(t *testing.T) {
		changed, err := f.svc.SetAccreditationFlag(ctx, nil, p.ID, true)
		require.NoError(t, err)
		assert.True(t, changed)

		revs := f.revs.byProvider(p.ID)
		require.Len(t, revs, 2)
		assert.True(t, revs[1].IsAccredited)
		// System sweeps run without an actor.
		assert.Nil(t, f.activity.entries[1].ChangedByID)
	})

	t.Run("setting the same value is a no-op", func(t *testing.T) {
		changed, err := f.svc.SetAccreditationFlag(ctx, nil, p.ID, true)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Len(t, f.revs.byProvider(p.ID), 2)
	})

	t.Run("a deleted provider is left alone", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, p.ID))
		changed, err := f.svc.SetAccreditationFlag(ctx, nil, p.ID, false)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestProviderServiceAcademicYears(t *testing.T) {
	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	setup := func(t *testing.T) (*providerServiceFixture, *models.Provider, *models.AcademicYear) {
		t.Helper()
		f := newProviderServiceFixture()
		p, err := f.svc.Create(ctx, ProviderInput{OperatingName: "Coastal University", Type: models.ProviderTypeHEI})
		require.NoError(t, err)
		year := &models.AcademicYear{
			ID:       uuid.New(),
			Name:     "2026/27",
			Code:     "2627",
			StartsOn: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			EndsOn:   time.Date(2027, 7, 31, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, f.years.Insert(ctx, nil, year))
		return f, p, year
	}

	t.Run("onboarding inserts a link with revision 1", func(t *testing.T) {
		f, p, year := setup(t)

		require.NoError(t, f.svc.AddAcademicYear(ctx, p.ID, year.ID))
		assert.Equal(t, 1, f.years.linkInserts)

		link, err := f.years.FindProviderLink(ctx, nil, p.ID, year.ID)
		require.NoError(t, err)
		require.NotNil(t, link)
		revs := f.yearRevs.revs[link.ID]
		require.Len(t, revs, 1)
		assert.Equal(t, 1, revs[0].RevisionNumber)
	})

	t.Run("onboarding twice is silent", func(t *testing.T) {
		f, p, year := setup(t)

		require.NoError(t, f.svc.AddAcademicYear(ctx, p.ID, year.ID))
		require.NoError(t, f.svc.AddAcademicYear(ctx, p.ID, year.ID))
		assert.Equal(t, 1, f.years.linkInserts)
		assert.Zero(t, f.years.linkUpdates)
	})

	t.Run("re-onboarding restores the soft-deleted link", func(t *testing.T) {
		f, p, year := setup(t)

		require.NoError(t, f.svc.AddAcademicYear(ctx, p.ID, year.ID))
		require.NoError(t, f.svc.RemoveAcademicYear(ctx, p.ID, year.ID))
		require.NoError(t, f.svc.AddAcademicYear(ctx, p.ID, year.ID))

		// Same row, one sequence: insert, delete, restore.
		assert.Equal(t, 1, f.years.linkInserts)
		assert.Equal(t, 2, f.years.linkUpdates)

		link, err := f.years.FindProviderLink(ctx, nil, p.ID, year.ID)
		require.NoError(t, err)
		require.NotNil(t, link)
		assert.Nil(t, link.DeletedAt)
		assert.Len(t, f.yearRevs.revs[link.ID], 3)
	})

	t.Run("removing an absent link is not found", func(t *testing.T) {
		f, p, year := setup(t)
		err := f.svc.RemoveAcademicYear(ctx, p.ID, year.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("an archived provider cannot onboard", func(t *testing.T) {
		f, p, year := setup(t)
		_, err := f.svc.Archive(ctx, p.ID)
		require.NoError(t, err)

		err = f.svc.AddAcademicYear(ctx, p.ID, year.ID)
		assert.ErrorIs(t, err, apperrors.ErrProviderArchived)
	})
}
