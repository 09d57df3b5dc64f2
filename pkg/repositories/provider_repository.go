// Package repositories provides raw-SQL data access for register-engine.
// Every method takes a database.Querier so the same code runs against the
// pool or inside a caller-owned transaction.
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

// ProviderRepository defines data access for providers.
type ProviderRepository interface {
	Insert(ctx context.Context, q database.Querier, p *models.Provider) error
	Update(ctx context.Context, q database.Querier, p *models.Provider) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Provider, error)
	// Lock takes a row lock on the provider for the duration of the
	// enclosing transaction, serialising revision numbering for concurrent
	// updates to the same provider.
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	List(ctx context.Context, q database.Querier, limit, offset int) ([]*models.Provider, error)
	// NamesByIDs returns operating names for the given providers, used for
	// activity summary labels.
	NamesByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type providerRepository struct{}

// NewProviderRepository creates a new provider repository.
func NewProviderRepository() ProviderRepository {
	return &providerRepository{}
}

var _ ProviderRepository = (*providerRepository)(nil)

const providerColumns = `id, operating_name, legal_name, type, ukprn, urn, code, website,
	is_accredited, archived_at, archived_by_id, created_at, created_by_id,
	updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *providerRepository) Insert(ctx context.Context, q database.Querier, p *models.Provider) error {
	query := `
		INSERT INTO providers (` + providerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := q.Exec(ctx, query,
		p.ID, p.OperatingName, p.LegalName, p.Type, p.UKPRN, p.URN, p.Code, p.Website,
		p.IsAccredited, p.ArchivedAt, p.ArchivedByID, p.CreatedAt, p.CreatedByID,
		p.UpdatedAt, p.UpdatedByID, p.DeletedAt, p.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert provider: %w", err)
	}
	return nil
}

func (r *providerRepository) Update(ctx context.Context, q database.Querier, p *models.Provider) error {
	query := `
		UPDATE providers SET
			operating_name = $2, legal_name = $3, type = $4, ukprn = $5, urn = $6,
			code = $7, website = $8, is_accredited = $9, archived_at = $10,
			archived_by_id = $11, updated_at = $12, updated_by_id = $13,
			deleted_at = $14, deleted_by_id = $15
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		p.ID, p.OperatingName, p.LegalName, p.Type, p.UKPRN, p.URN, p.Code, p.Website,
		p.IsAccredited, p.ArchivedAt, p.ArchivedByID, p.UpdatedAt, p.UpdatedByID,
		p.DeletedAt, p.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *providerRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	p, err := scanProvider(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return p, nil
}

func (r *providerRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM providers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock provider: %w", err)
	}
	return nil
}

func (r *providerRepository) List(ctx context.Context, q database.Querier, limit, offset int) ([]*models.Provider, error) {
	query := `
		SELECT ` + providerColumns + `
		FROM providers
		WHERE deleted_at IS NULL
		ORDER BY operating_name
		LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}
	return providers, nil
}

func (r *providerRepository) NamesByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := q.Query(ctx, `SELECT id, operating_name FROM providers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up provider names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan provider name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider names: %w", err)
	}
	return names, nil
}

func scanProvider(row pgx.Row) (*models.Provider, error) {
	var p models.Provider
	err := row.Scan(
		&p.ID, &p.OperatingName, &p.LegalName, &p.Type, &p.UKPRN, &p.URN, &p.Code, &p.Website,
		&p.IsAccredited, &p.ArchivedAt, &p.ArchivedByID, &p.CreatedAt, &p.CreatedByID,
		&p.UpdatedAt, &p.UpdatedByID, &p.DeletedAt, &p.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProviderRevisionRepository defines data access for provider revisions.
type ProviderRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderRevision) error
	// Latest returns the revision with the highest number for the provider,
	// or nil when the provider has no revisions yet.
	Latest(ctx context.Context, q database.Querier, providerID uuid.UUID) (*models.ProviderRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderRevision, error)
}

type providerRevisionRepository struct{}

// NewProviderRevisionRepository creates a new provider revision repository.
func NewProviderRevisionRepository() ProviderRevisionRepository {
	return &providerRevisionRepository{}
}

var _ ProviderRevisionRepository = (*providerRevisionRepository)(nil)

const providerRevisionColumns = `id, provider_id, operating_name, legal_name, type, ukprn, urn,
	code, website, is_accredited, archived_at, archived_by_id, deleted_at, deleted_by_id,
	revision_number, revision_at, revision_by_id`

func (r *providerRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderRevision) error {
	query := `
		INSERT INTO provider_revisions (` + providerRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderID, rev.OperatingName, rev.LegalName, rev.Type, rev.UKPRN, rev.URN,
		rev.Code, rev.Website, rev.IsAccredited, rev.ArchivedAt, rev.ArchivedByID,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert provider revision: %w", err)
	}
	return nil
}

func (r *providerRevisionRepository) Latest(ctx context.Context, q database.Querier, providerID uuid.UUID) (*models.ProviderRevision, error) {
	query := `
		SELECT ` + providerRevisionColumns + `
		FROM provider_revisions
		WHERE provider_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanProviderRevision(q.QueryRow(ctx, query, providerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest provider revision: %w", err)
	}
	return rev, nil
}

func (r *providerRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + providerRevisionColumns + ` FROM provider_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanProviderRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider revisions: %w", err)
	}
	return result, nil
}

func scanProviderRevision(row pgx.Row) (*models.ProviderRevision, error) {
	var rev models.ProviderRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderID, &rev.OperatingName, &rev.LegalName, &rev.Type, &rev.UKPRN,
		&rev.URN, &rev.Code, &rev.Website, &rev.IsAccredited, &rev.ArchivedAt, &rev.ArchivedByID,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan provider revision: %w", err)
	}
	return &rev, nil
}
