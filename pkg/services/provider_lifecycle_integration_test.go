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
	"github.com/trainhub/register-engine/pkg/testhelpers"
)

// Full write path against a real database: every lifecycle step must produce
// exactly one revision with gapless numbering and one activity row, and a
// no-op save must produce neither.
func TestProviderLifecycleIntegration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	registry := NewRegistry(testDB.DB, zap.NewNop())

	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	provider, err := registry.Providers.Create(ctx, ProviderInput{
		OperatingName: "Harbour SCITT",
		Type:          models.ProviderTypeSCITT,
	})
	require.NoError(t, err)

	legal := "Harbour SCITT Ltd"
	_, err = registry.Providers.Update(ctx, provider.ID, ProviderInput{
		OperatingName: "Harbour SCITT",
		LegalName:     &legal,
		Type:          models.ProviderTypeSCITT,
	})
	require.NoError(t, err)

	// Saving identical values must leave the history untouched.
	_, err = registry.Providers.Update(ctx, provider.ID, ProviderInput{
		OperatingName: "Harbour SCITT",
		LegalName:     &legal,
		Type:          models.ProviderTypeSCITT,
	})
	require.NoError(t, err)

	_, err = registry.Providers.Archive(ctx, provider.ID)
	require.NoError(t, err)

	revRepo := repositories.NewProviderRevisionRepository()
	head, err := revRepo.Latest(ctx, testDB.DB, provider.ID)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, 3, head.RevisionNumber)
	assert.NotNil(t, head.ArchivedAt)
	assert.Equal(t, &actor, head.RevisionByID)

	summaries, err := registry.Activity.ListForEntity(ctx, models.EntityTypeProvider, provider.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	for i, s := range summaries {
		assert.Equal(t, provider.ID, s.EntityID, "summary %d", i)
		assert.Equal(t, &actor, s.ChangedByID, "summary %d", i)
	}

	require.NoError(t, registry.Providers.Delete(ctx, provider.ID))
	_, err = registry.Providers.Get(ctx, provider.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	head, err = revRepo.Latest(ctx, testDB.DB, provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, head.RevisionNumber)
	assert.NotNil(t, head.DeletedAt)
}

func TestAccreditationFlagIntegration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	registry := NewRegistry(testDB.DB, zap.NewNop())

	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	provider, err := registry.Providers.Create(ctx, ProviderInput{
		OperatingName: "Coastal University",
		Type:          models.ProviderTypeHEI,
	})
	require.NoError(t, err)
	assert.False(t, provider.IsAccredited)

	// A current accreditation flips the derived flag in the same transaction.
	starts := time.Now().UTC().AddDate(0, -1, 0)
	_, err = registry.Accreditations.Create(ctx, provider.ID, AccreditationInput{
		Number:   "ACC-1234",
		StartsOn: starts,
	})
	require.NoError(t, err)

	refreshed, err := registry.Providers.Get(ctx, provider.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.IsAccredited)

	// The flip itself is a tracked change, so the provider gained a revision.
	revRepo := repositories.NewProviderRevisionRepository()
	head, err := revRepo.Latest(ctx, testDB.DB, provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, head.RevisionNumber)
	assert.True(t, head.IsAccredited)

	// A sweep over a consistent register changes nothing.
	changed, err := registry.AccreditationStatus.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestPartnershipIntegration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	registry := NewRegistry(testDB.DB, zap.NewNop())

	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	training, err := registry.Providers.Create(ctx, ProviderInput{
		OperatingName: "Riverside School",
		Type:          models.ProviderTypeSchool,
	})
	require.NoError(t, err)
	accredited, err := registry.Providers.Create(ctx, ProviderInput{
		OperatingName: "Coastal University Partnerships",
		Type:          models.ProviderTypeHEI,
	})
	require.NoError(t, err)

	t.Run("a provider cannot partner with itself", func(t *testing.T) {
		_, err := registry.Partnerships.Create(ctx, training.ID, training.ID)
		assert.ErrorIs(t, err, apperrors.ErrSelfPartnership)
	})

	t.Run("the accredited side must hold a current accreditation", func(t *testing.T) {
		_, err := registry.Partnerships.Create(ctx, training.ID, accredited.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidProvider)
	})

	starts := time.Now().UTC().AddDate(0, -1, 0)
	_, err = registry.Accreditations.Create(ctx, accredited.ID, AccreditationInput{
		Number:   "ACC-5678",
		StartsOn: starts,
	})
	require.NoError(t, err)

	partnership, err := registry.Partnerships.Create(ctx, training.ID, accredited.ID)
	require.NoError(t, err)

	t.Run("the partnership shows in both providers' activity", func(t *testing.T) {
		for _, providerID := range []uuid.UUID{training.ID, accredited.ID} {
			summaries, total, err := registry.Activity.ListForProvider(ctx, providerID, 50, 0)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, total, 2)

			found := false
			for _, s := range summaries {
				if s.EntityType == models.EntityTypeProviderPartnership && s.EntityID == partnership.ID {
					found = true
				}
			}
			assert.True(t, found, "partnership activity missing for provider %s", providerID)
		}
	})

	t.Run("duplicate partnerships conflict", func(t *testing.T) {
		_, err := registry.Partnerships.Create(ctx, training.ID, accredited.ID)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}
