package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
)

// recordingFlagWriter stands in for the provider service's flag write path.
type recordingFlagWriter struct {
	flags map[uuid.UUID]bool
	calls []uuid.UUID
	errs  map[uuid.UUID]error
}

func newRecordingFlagWriter() *recordingFlagWriter {
	return &recordingFlagWriter{flags: make(map[uuid.UUID]bool), errs: make(map[uuid.UUID]error)}
}

func (w *recordingFlagWriter) SetAccreditationFlag(_ context.Context, _ database.Querier, providerID uuid.UUID, accredited bool) (bool, error) {
	w.calls = append(w.calls, providerID)
	if err := w.errs[providerID]; err != nil {
		return false, err
	}
	if w.flags[providerID] == accredited {
		return false, nil
	}
	w.flags[providerID] = accredited
	return true, nil
}

func TestAccreditationStatusRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the flag from current accreditations", func(t *testing.T) {
		providerID := uuid.New()
		accreds := &mockAccreditationRepo{current: map[uuid.UUID]bool{providerID: true}}
		flags := newRecordingFlagWriter()
		svc := NewAccreditationStatusService(fakeTx{}, accreds, flags, zap.NewNop())

		changed, err := svc.Refresh(ctx, providerID)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, flags.flags[providerID])
	})

	t.Run("reports unchanged when the flag already agrees", func(t *testing.T) {
		providerID := uuid.New()
		accreds := &mockAccreditationRepo{current: map[uuid.UUID]bool{providerID: true}}
		flags := newRecordingFlagWriter()
		flags.flags[providerID] = true
		svc := NewAccreditationStatusService(fakeTx{}, accreds, flags, zap.NewNop())

		changed, err := svc.Refresh(ctx, providerID)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestAccreditationStatusRefreshAll(t *testing.T) {
	ctx := context.Background()

	t.Run("corrects gained and lapsed providers", func(t *testing.T) {
		gained := uuid.New()
		lapsed := uuid.New()
		accreds := &mockAccreditationRepo{gained: []uuid.UUID{gained}, lapsed: []uuid.UUID{lapsed}}
		flags := newRecordingFlagWriter()
		flags.flags[lapsed] = true
		svc := NewAccreditationStatusService(fakeTx{}, accreds, flags, zap.NewNop())

		changed, err := svc.RefreshAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, changed)
		assert.True(t, flags.flags[gained])
		assert.False(t, flags.flags[lapsed])
	})

	t.Run("nothing drifted means nothing written", func(t *testing.T) {
		accreds := &mockAccreditationRepo{}
		flags := newRecordingFlagWriter()
		svc := NewAccreditationStatusService(fakeTx{}, accreds, flags, zap.NewNop())

		changed, err := svc.RefreshAll(ctx)
		require.NoError(t, err)
		assert.Zero(t, changed)
		assert.Empty(t, flags.calls)
	})

	t.Run("a failing provider stops the sweep with the count so far", func(t *testing.T) {
		ok := uuid.New()
		bad := uuid.New()
		accreds := &mockAccreditationRepo{gained: []uuid.UUID{ok, bad}}
		flags := newRecordingFlagWriter()
		flags.errs[bad] = assert.AnError
		svc := NewAccreditationStatusService(fakeTx{}, accreds, flags, zap.NewNop())

		changed, err := svc.RefreshAll(ctx)
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, changed)
		assert.True(t, flags.flags[ok])
	})
}

func TestAccreditationStatusEndToEnd(t *testing.T) {
	// Wire the real provider service in as the flag writer so a sweep
	// produces actual revisions and activity entries.
	ctx := context.Background()
	f := newProviderServiceFixture()
	p, err := f.svc.Create(ctx, ProviderInput{OperatingName: "Coastal University", Type: models.ProviderTypeHEI})
	require.NoError(t, err)

	accreds := &mockAccreditationRepo{gained: []uuid.UUID{p.ID}}
	status := NewAccreditationStatusService(fakeTx{}, accreds, f.svc, zap.NewNop())

	changed, err := status.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	revs := f.revs.byProvider(p.ID)
	require.Len(t, revs, 2)
	assert.True(t, revs[1].IsAccredited)
	assert.Len(t, f.activity.entries, 2)
}
