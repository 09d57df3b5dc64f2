package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/revisions"
)

func testProvider(name string) *models.Provider {
	return &models.Provider{
		ID:            uuid.New(),
		OperatingName: name,
		Type:          models.ProviderTypeHEI,
	}
}

func TestRevisionWriterRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("first revision gets number 1 and a create entry", func(t *testing.T) {
		activity := &mockActivityRepo{}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		var persisted *models.ProviderRevision
		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			Head:       nil,
			Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
				persisted = p.Snapshot(number, at)
				return persisted, nil
			},
		})
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, 1, persisted.RevisionNumber)

		require.Len(t, activity.entries, 1)
		entry := activity.entries[0]
		assert.Equal(t, models.TableProviderRevisions, entry.RevisionTable)
		assert.Equal(t, persisted.ID, entry.RevisionID)
		assert.Equal(t, models.EntityTypeProvider, entry.EntityType)
		assert.Equal(t, p.ID, entry.EntityID)
		assert.Equal(t, 1, entry.RevisionNumber)
		assert.Equal(t, revisions.ActionCreate, entry.Action)
	})

	t.Run("numbers continue from the head revision", func(t *testing.T) {
		activity := &mockActivityRepo{}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		head := p.Snapshot(4, time.Now().UTC())
		p.OperatingName = "Coastal University and College"

		var persisted *models.ProviderRevision
		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			Head:       head,
			Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
				persisted = p.Snapshot(number, at)
				return persisted, nil
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, persisted.RevisionNumber)
		require.Len(t, activity.entries, 1)
		assert.Equal(t, revisions.ActionUpdate, activity.entries[0].Action)
	})

	t.Run("unchanged values write nothing", func(t *testing.T) {
		activity := &mockActivityRepo{}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		head := p.Snapshot(2, time.Now().UTC())

		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			Head:       head,
			Persist: func(int, time.Time) (models.RevisionRecord, error) {
				t.Fatal("persist must not be called for an unchanged entity")
				return nil, nil
			},
		})
		require.NoError(t, err)
		assert.Empty(t, activity.entries)
	})

	t.Run("deleted entity logs a delete entry", func(t *testing.T) {
		activity := &mockActivityRepo{}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		head := p.Snapshot(1, time.Now().UTC())
		now := time.Now().UTC()
		p.DeletedAt = &now

		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			DeletedAt:  p.DeletedAt,
			Head:       head,
			Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
				return p.Snapshot(number, at), nil
			},
		})
		require.NoError(t, err)
		require.Len(t, activity.entries, 1)
		assert.Equal(t, revisions.ActionDelete, activity.entries[0].Action)
	})

	t.Run("missing revision id skips the activity entry without failing", func(t *testing.T) {
		activity := &mockActivityRepo{}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
				rev := p.Snapshot(number, at)
				rev.RevisionMeta.ID = uuid.Nil
				return rev, nil
			},
		})
		require.NoError(t, err)
		assert.Empty(t, activity.entries)
	})

	t.Run("persist error aborts before the activity entry", func(t *testing.T) {
		activity := &mockActivityRepo{}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		boom := errors.New("insert failed")
		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			Persist: func(int, time.Time) (models.RevisionRecord, error) {
				return nil, boom
			},
		})
		require.ErrorIs(t, err, boom)
		assert.Empty(t, activity.entries)
	})

	t.Run("activity insert failure is wrapped", func(t *testing.T) {
		activity := &mockActivityRepo{insertErr: errors.New("activity down")}
		writer := newRevisionWriter(activity, zap.NewNop())

		p := testProvider("Coastal University")
		err := writer.Record(ctx, nil, revisionInput{
			Table:      models.TableProviderRevisions,
			EntityType: models.EntityTypeProvider,
			EntityID:   p.ID,
			Values:     p.TrackedValues(),
			Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
				return p.Snapshot(number, at), nil
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to log provider activity")
	})
}
