package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
)

// APITokenRepository defines data access for API client tokens.
type APITokenRepository interface {
	Insert(ctx context.Context, q database.Querier, t *models.APIClientToken) error
	Update(ctx context.Context, q database.Querier, t *models.APIClientToken) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.APIClientToken, error)
	GetByHash(ctx context.Context, q database.Querier, hash string) (*models.APIClientToken, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	List(ctx context.Context, q database.Querier) ([]*models.APIClientToken, error)
}

type apiTokenRepository struct{}

// NewAPITokenRepository creates a new API token repository.
func NewAPITokenRepository() APITokenRepository {
	return &apiTokenRepository{}
}

var _ APITokenRepository = (*apiTokenRepository)(nil)

const apiTokenColumns = `id, description, token_hash, expires_at, revoked_at,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *apiTokenRepository) Insert(ctx context.Context, q database.Querier, t *models.APIClientToken) error {
	query := `
		INSERT INTO api_client_tokens (` + apiTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		t.ID, t.Description, t.TokenHash, t.ExpiresAt, t.RevokedAt,
		t.CreatedAt, t.CreatedByID, t.UpdatedAt, t.UpdatedByID, t.DeletedAt, t.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api token: %w", err)
	}
	return nil
}

func (r *apiTokenRepository) Update(ctx context.Context, q database.Querier, t *models.APIClientToken) error {
	query := `
		UPDATE api_client_tokens SET
			description = $2, expires_at = $3, revoked_at = $4,
			updated_at = $5, updated_by_id = $6, deleted_at = $7, deleted_by_id = $8
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		t.ID, t.Description, t.ExpiresAt, t.RevokedAt,
		t.UpdatedAt, t.UpdatedByID, t.DeletedAt, t.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update api token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *apiTokenRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.APIClientToken, error) {
	query := `SELECT ` + apiTokenColumns + ` FROM api_client_tokens WHERE id = $1`

	t, err := scanAPIToken(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api token: %w", err)
	}
	return t, nil
}

func (r *apiTokenRepository) GetByHash(ctx context.Context, q database.Querier, hash string) (*models.APIClientToken, error) {
	query := `SELECT ` + apiTokenColumns + ` FROM api_client_tokens WHERE token_hash = $1 AND deleted_at IS NULL`

	t, err := scanAPIToken(q.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api token by hash: %w", err)
	}
	return t, nil
}

func (r *apiTokenRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM api_client_tokens WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock api token: %w", err)
	}
	return nil
}

func (r *apiTokenRepository) List(ctx context.Context, q database.Querier) ([]*models.APIClientToken, error) {
	query := `
		SELECT ` + apiTokenColumns + `
		FROM api_client_tokens
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.APIClientToken
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api tokens: %w", err)
	}
	return tokens, nil
}

func scanAPIToken(row pgx.Row) (*models.APIClientToken, error) {
	var t models.APIClientToken
	err := row.Scan(
		&t.ID, &t.Description, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt,
		&t.CreatedAt, &t.CreatedByID, &t.UpdatedAt, &t.UpdatedByID, &t.DeletedAt, &t.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// APITokenRevisionRepository defines data access for API token revisions.
type APITokenRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.APIClientTokenRevision) error
	Latest(ctx context.Context, q database.Querier, tokenID uuid.UUID) (*models.APIClientTokenRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.APIClientTokenRevision, error)
}

type apiTokenRevisionRepository struct{}

// NewAPITokenRevisionRepository creates a new API token revision repository.
func NewAPITokenRevisionRepository() APITokenRevisionRepository {
	return &apiTokenRevisionRepository{}
}

var _ APITokenRevisionRepository = (*apiTokenRevisionRepository)(nil)

const apiTokenRevisionColumns = `id, api_client_token_id, description, token_hash,
	expires_at, revoked_at, deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *apiTokenRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.APIClientTokenRevision) error {
	query := `
		INSERT INTO api_client_token_revisions (` + apiTokenRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.APIClientTokenID, rev.Description, rev.TokenHash,
		rev.ExpiresAt, rev.RevokedAt, rev.DeletedAt, rev.DeletedByID,
		rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api token revision: %w", err)
	}
	return nil
}

func (r *apiTokenRevisionRepository) Latest(ctx context.Context, q database.Querier, tokenID uuid.UUID) (*models.APIClientTokenRevision, error) {
	query := `
		SELECT ` + apiTokenRevisionColumns + `
		FROM api_client_token_revisions
		WHERE api_client_token_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanAPITokenRevision(q.QueryRow(ctx, query, tokenID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest api token revision: %w", err)
	}
	return rev, nil
}

func (r *apiTokenRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.APIClientTokenRevision, error) {
	result := make(map[uuid.UUID]*models.APIClientTokenRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + apiTokenRevisionColumns + ` FROM api_client_token_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get api token revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanAPITokenRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api token revisions: %w", err)
	}
	return result, nil
}

func scanAPITokenRevision(row pgx.Row) (*models.APIClientTokenRevision, error) {
	var rev models.APIClientTokenRevision
	err := row.Scan(
		&rev.ID, &rev.APIClientTokenID, &rev.Description, &rev.TokenHash,
		&rev.ExpiresAt, &rev.RevokedAt, &rev.DeletedAt, &rev.DeletedByID,
		&rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
