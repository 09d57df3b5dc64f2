package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
)

// AccreditationRepository defines data access for provider accreditations.
type AccreditationRepository interface {
	Insert(ctx context.Context, q database.Querier, a *models.ProviderAccreditation) error
	Update(ctx context.Context, q database.Querier, a *models.ProviderAccreditation) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAccreditation, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderAccreditation, error)
	// HasCurrent reports whether the provider holds at least one non-deleted
	// accreditation whose date range contains now.
	HasCurrent(ctx context.Context, q database.Querier, providerID uuid.UUID, now time.Time) (bool, error)
	// NewlyAccredited returns ids of providers whose stored flag is false but
	// that hold a current accreditation.
	NewlyAccredited(ctx context.Context, q database.Querier, now time.Time) ([]uuid.UUID, error)
	// NewlyLapsed returns ids of providers whose stored flag is true but that
	// hold no current accreditation.
	NewlyLapsed(ctx context.Context, q database.Querier, now time.Time) ([]uuid.UUID, error)
}

type accreditationRepository struct{}

// NewAccreditationRepository creates a new accreditation repository.
func NewAccreditationRepository() AccreditationRepository {
	return &accreditationRepository{}
}

var _ AccreditationRepository = (*accreditationRepository)(nil)

const accreditationColumns = `id, provider_id, number, starts_on, ends_on, created_at,
	created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

// currentAccreditation is the SQL definition of "current": started, not yet
// ended or open-ended, not soft-deleted. The accreditation status service and
// both batch set queries share it so the flag stays a pure function of these
// rows.
const currentAccreditation = `a.deleted_at IS NULL AND a.starts_on <= $1
	AND (a.ends_on IS NULL OR a.ends_on >= $1)`

func (r *accreditationRepository) Insert(ctx context.Context, q database.Querier, a *models.ProviderAccreditation) error {
	query := `
		INSERT INTO provider_accreditations (` + accreditationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		a.ID, a.ProviderID, a.Number, a.StartsOn, a.EndsOn, a.CreatedAt,
		a.CreatedByID, a.UpdatedAt, a.UpdatedByID, a.DeletedAt, a.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert accreditation: %w", err)
	}
	return nil
}

func (r *accreditationRepository) Update(ctx context.Context, q database.Querier, a *models.ProviderAccreditation) error {
	query := `
		UPDATE provider_accreditations SET
			number = $2, starts_on = $3, ends_on = $4, updated_at = $5,
			updated_by_id = $6, deleted_at = $7, deleted_by_id = $8
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		a.ID, a.Number, a.StartsOn, a.EndsOn, a.UpdatedAt,
		a.UpdatedByID, a.DeletedAt, a.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update accreditation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *accreditationRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAccreditation, error) {
	query := `SELECT ` + accreditationColumns + ` FROM provider_accreditations WHERE id = $1`

	a, err := scanAccreditation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get accreditation: %w", err)
	}
	return a, nil
}

func (r *accreditationRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM provider_accreditations WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock accreditation: %w", err)
	}
	return nil
}

func (r *accreditationRepository) ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderAccreditation, error) {
	query := `
		SELECT ` + accreditationColumns + `
		FROM provider_accreditations
		WHERE provider_id = $1 AND deleted_at IS NULL
		ORDER BY starts_on DESC`

	rows, err := q.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accreditations: %w", err)
	}
	defer rows.Close()

	var accreditations []*models.ProviderAccreditation
	for rows.Next() {
		a, err := scanAccreditation(rows)
		if err != nil {
			return nil, err
		}
		accreditations = append(accreditations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accreditations: %w", err)
	}
	return accreditations, nil
}

func (r *accreditationRepository) HasCurrent(ctx context.Context, q database.Querier, providerID uuid.UUID, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM provider_accreditations a
			WHERE ` + currentAccreditation + ` AND a.provider_id = $2
		)`

	var exists bool
	if err := q.QueryRow(ctx, query, now, providerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check current accreditation: %w", err)
	}
	return exists, nil
}

func (r *accreditationRepository) NewlyAccredited(ctx context.Context, q database.Querier, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT a.provider_id
		FROM provider_accreditations a
		JOIN providers p ON p.id = a.provider_id
		WHERE ` + currentAccreditation + ` AND p.is_accredited = FALSE AND p.deleted_at IS NULL`

	return scanProviderIDs(ctx, q, query, now)
}

func (r *accreditationRepository) NewlyLapsed(ctx context.Context, q database.Querier, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT p.id
		FROM providers p
		WHERE p.is_accredited = TRUE AND p.deleted_at IS NULL AND NOT EXISTS (
			SELECT 1 FROM provider_accreditations a
			WHERE ` + currentAccreditation + ` AND a.provider_id = p.id
		)`

	return scanProviderIDs(ctx, q, query, now)
}

func scanProviderIDs(ctx context.Context, q database.Querier, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan provider id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider ids: %w", err)
	}
	return ids, nil
}

func scanAccreditation(row pgx.Row) (*models.ProviderAccreditation, error) {
	var a models.ProviderAccreditation
	err := row.Scan(
		&a.ID, &a.ProviderID, &a.Number, &a.StartsOn, &a.EndsOn, &a.CreatedAt,
		&a.CreatedByID, &a.UpdatedAt, &a.UpdatedByID, &a.DeletedAt, &a.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AccreditationRevisionRepository defines data access for accreditation revisions.
type AccreditationRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderAccreditationRevision) error
	Latest(ctx context.Context, q database.Querier, accreditationID uuid.UUID) (*models.ProviderAccreditationRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAccreditationRevision, error)
}

type accreditationRevisionRepository struct{}

// NewAccreditationRevisionRepository creates a new accreditation revision repository.
func NewAccreditationRevisionRepository() AccreditationRevisionRepository {
	return &accreditationRevisionRepository{}
}

var _ AccreditationRevisionRepository = (*accreditationRevisionRepository)(nil)

const accreditationRevisionColumns = `id, provider_accreditation_id, provider_id, number,
	starts_on, ends_on, deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *accreditationRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderAccreditationRevision) error {
	query := `
		INSERT INTO provider_accreditation_revisions (` + accreditationRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderAccreditationID, rev.ProviderID, rev.Number,
		rev.StartsOn, rev.EndsOn, rev.DeletedAt, rev.DeletedByID,
		rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert accreditation revision: %w", err)
	}
	return nil
}

func (r *accreditationRevisionRepository) Latest(ctx context.Context, q database.Querier, accreditationID uuid.UUID) (*models.ProviderAccreditationRevision, error) {
	query := `
		SELECT ` + accreditationRevisionColumns + `
		FROM provider_accreditation_revisions
		WHERE provider_accreditation_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanAccreditationRevision(q.QueryRow(ctx, query, accreditationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest accreditation revision: %w", err)
	}
	return rev, nil
}

func (r *accreditationRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAccreditationRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderAccreditationRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + accreditationRevisionColumns + ` FROM provider_accreditation_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get accreditation revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanAccreditationRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accreditation revisions: %w", err)
	}
	return result, nil
}

func scanAccreditationRevision(row pgx.Row) (*models.ProviderAccreditationRevision, error) {
	var rev models.ProviderAccreditationRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderAccreditationID, &rev.ProviderID, &rev.Number,
		&rev.StartsOn, &rev.EndsOn, &rev.DeletedAt, &rev.DeletedByID,
		&rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan accreditation revision: %w", err)
	}
	return &rev, nil
}
