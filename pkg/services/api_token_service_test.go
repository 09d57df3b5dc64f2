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
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/revisions"
)

type mockAPITokenRepo struct {
	tokens map[uuid.UUID]*models.APIClientToken
}

func newMockAPITokenRepo() *mockAPITokenRepo {
	return &mockAPITokenRepo{tokens: make(map[uuid.UUID]*models.APIClientToken)}
}

func (m *mockAPITokenRepo) Insert(_ context.Context, _ database.Querier, t *models.APIClientToken) error {
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *mockAPITokenRepo) Update(_ context.Context, _ database.Querier, t *models.APIClientToken) error {
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *mockAPITokenRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.APIClientToken, error) {
	t, ok := m.tokens[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockAPITokenRepo) GetByHash(_ context.Context, _ database.Querier, hash string) (*models.APIClientToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAPITokenRepo) Lock(context.Context, database.Querier, uuid.UUID) error { return nil }

func (m *mockAPITokenRepo) List(context.Context, database.Querier) ([]*models.APIClientToken, error) {
	out := make([]*models.APIClientToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

type mockAPITokenRevRepo struct {
	revs map[uuid.UUID][]*models.APIClientTokenRevision
}

func newMockAPITokenRevRepo() *mockAPITokenRevRepo {
	return &mockAPITokenRevRepo{revs: make(map[uuid.UUID][]*models.APIClientTokenRevision)}
}

func (m *mockAPITokenRevRepo) Insert(_ context.Context, _ database.Querier, rev *models.APIClientTokenRevision) error {
	m.revs[rev.APIClientTokenID] = append(m.revs[rev.APIClientTokenID], rev)
	return nil
}

func (m *mockAPITokenRevRepo) Latest(_ context.Context, _ database.Querier, tokenID uuid.UUID) (*models.APIClientTokenRevision, error) {
	revs := m.revs[tokenID]
	if len(revs) == 0 {
		return nil, nil
	}
	return revs[len(revs)-1], nil
}

func (m *mockAPITokenRevRepo) GetByIDs(_ context.Context, _ database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.APIClientTokenRevision, error) {
	out := make(map[uuid.UUID]*models.APIClientTokenRevision)
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

type tokenServiceFixture struct {
	svc      APITokenService
	tokens   *mockAPITokenRepo
	revs     *mockAPITokenRevRepo
	activity *mockActivityRepo
}

func newTokenServiceFixture() *tokenServiceFixture {
	f := &tokenServiceFixture{
		tokens:   newMockAPITokenRepo(),
		revs:     newMockAPITokenRevRepo(),
		activity: &mockActivityRepo{},
	}
	writer := newRevisionWriter(f.activity, zap.NewNop())
	f.svc = NewAPITokenService(fakeTx{}, f.tokens, f.revs, writer, zap.NewNop())
	return f
}

func TestAPITokenIssueAndAuthenticate(t *testing.T) {
	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)
	f := newTokenServiceFixture()

	issued, err := f.svc.Issue(ctx, "reporting pipeline", nil)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Plaintext)
	assert.Equal(t, "reporting pipeline", issued.Token.Description)

	// Only the hash is stored; the plaintext never appears in the row.
	stored := f.tokens.tokens[issued.Token.ID]
	assert.NotEqual(t, issued.Plaintext, stored.TokenHash)
	assert.NotEmpty(t, stored.TokenHash)

	require.Len(t, f.revs.revs[issued.Token.ID], 1)
	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, revisions.ActionCreate, f.activity.entries[0].Action)

	t.Run("the plaintext authenticates", func(t *testing.T) {
		got, err := f.svc.Authenticate(ctx, issued.Plaintext)
		require.NoError(t, err)
		assert.Equal(t, issued.Token.ID, got.ID)
	})

	t.Run("a wrong plaintext does not", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "not-the-token")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestAPITokenExpiryAndRevocation(t *testing.T) {
	actor := uuid.New()
	ctx := models.WithActor(context.Background(), actor)

	t.Run("an expired token is rejected", func(t *testing.T) {
		f := newTokenServiceFixture()
		expires := time.Now().UTC().Add(-time.Hour)
		issued, err := f.svc.Issue(ctx, "expired client", &expires)
		require.NoError(t, err)

		_, err = f.svc.Authenticate(ctx, issued.Plaintext)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("revoking writes a revision and kills the token", func(t *testing.T) {
		f := newTokenServiceFixture()
		issued, err := f.svc.Issue(ctx, "old client", nil)
		require.NoError(t, err)

		require.NoError(t, f.svc.Revoke(ctx, issued.Token.ID))

		revs := f.revs.revs[issued.Token.ID]
		require.Len(t, revs, 2)
		assert.NotNil(t, revs[1].RevokedAt)

		_, err = f.svc.Authenticate(ctx, issued.Plaintext)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		// Revoking again is not found.
		err = f.svc.Revoke(ctx, issued.Token.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
