package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/testhelpers"
)

// The batch set queries feed the accreditation sweep, so a soft-deleted
// provider must never be selected regardless of the flag value its row
// died with.
func TestAccreditationSetQueriesSkipDeletedProviders(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	providers := NewProviderRepository()
	accreditations := NewAccreditationRepository()
	now := time.Now().UTC()

	newProvider := func(t *testing.T, name string, accredited, deleted bool) *models.Provider {
		t.Helper()
		p := &models.Provider{
			ID:            uuid.New(),
			OperatingName: name,
			Type:          models.ProviderTypeHEI,
			IsAccredited:  accredited,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if deleted {
			deletedAt := now
			p.DeletedAt = &deletedAt
		}
		require.NoError(t, providers.Insert(ctx, testDB.DB, p))
		return p
	}

	accredit := func(t *testing.T, providerID uuid.UUID) {
		t.Helper()
		require.NoError(t, accreditations.Insert(ctx, testDB.DB, &models.ProviderAccreditation{
			ID:         uuid.New(),
			ProviderID: providerID,
			Number:     "ACC-" + uuid.NewString()[:8],
			StartsOn:   now.AddDate(0, -1, 0),
			CreatedAt:  now,
			UpdatedAt:  now,
		}))
	}

	t.Run("newly lapsed ignores deleted providers", func(t *testing.T) {
		lapsed := newProvider(t, "Lapsed HEI", true, false)
		deletedLapsed := newProvider(t, "Deleted lapsed HEI", true, true)

		ids, err := accreditations.NewlyLapsed(ctx, testDB.DB, now)
		require.NoError(t, err)
		assert.Contains(t, ids, lapsed.ID)
		assert.NotContains(t, ids, deletedLapsed.ID)
	})

	t.Run("newly accredited ignores deleted providers", func(t *testing.T) {
		gained := newProvider(t, "Gained HEI", false, false)
		accredit(t, gained.ID)
		deletedGained := newProvider(t, "Deleted gained HEI", false, true)
		accredit(t, deletedGained.ID)

		ids, err := accreditations.NewlyAccredited(ctx, testDB.DB, now)
		require.NoError(t, err)
		assert.Contains(t, ids, gained.ID)
		assert.NotContains(t, ids, deletedGained.ID)
	})
}
