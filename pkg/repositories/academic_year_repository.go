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

// AcademicYearRepository defines data access for academic years and the
// provider onboarding links that reference them.
type AcademicYearRepository interface {
	Insert(ctx context.Context, q database.Querier, y *models.AcademicYear) error
	Update(ctx context.Context, q database.Querier, y *models.AcademicYear) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.AcademicYear, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	List(ctx context.Context, q database.Querier) ([]*models.AcademicYear, error)

	InsertProviderLink(ctx context.Context, q database.Querier, l *models.ProviderAcademicYear) error
	UpdateProviderLink(ctx context.Context, q database.Querier, l *models.ProviderAcademicYear) error
	GetProviderLink(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAcademicYear, error)
	FindProviderLink(ctx context.Context, q database.Querier, providerID, academicYearID uuid.UUID) (*models.ProviderAcademicYear, error)
	ListProviderLinks(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderAcademicYear, error)
}

type academicYearRepository struct{}

// NewAcademicYearRepository creates a new academic year repository.
func NewAcademicYearRepository() AcademicYearRepository {
	return &academicYearRepository{}
}

var _ AcademicYearRepository = (*academicYearRepository)(nil)

const academicYearColumns = `id, name, code, starts_on, ends_on,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *academicYearRepository) Insert(ctx context.Context, q database.Querier, y *models.AcademicYear) error {
	query := `
		INSERT INTO academic_years (` + academicYearColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		y.ID, y.Name, y.Code, y.StartsOn, y.EndsOn,
		y.CreatedAt, y.CreatedByID, y.UpdatedAt, y.UpdatedByID, y.DeletedAt, y.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert academic year: %w", err)
	}
	return nil
}

func (r *academicYearRepository) Update(ctx context.Context, q database.Querier, y *models.AcademicYear) error {
	query := `
		UPDATE academic_years SET
			name = $2, code = $3, starts_on = $4, ends_on = $5,
			updated_at = $6, updated_by_id = $7, deleted_at = $8, deleted_by_id = $9
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		y.ID, y.Name, y.Code, y.StartsOn, y.EndsOn,
		y.UpdatedAt, y.UpdatedByID, y.DeletedAt, y.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update academic year: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *academicYearRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.AcademicYear, error) {
	query := `SELECT ` + academicYearColumns + ` FROM academic_years WHERE id = $1`

	y, err := scanAcademicYear(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get academic year: %w", err)
	}
	return y, nil
}

func (r *academicYearRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM academic_years WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock academic year: %w", err)
	}
	return nil
}

func (r *academicYearRepository) List(ctx context.Context, q database.Querier) ([]*models.AcademicYear, error) {
	query := `
		SELECT ` + academicYearColumns + `
		FROM academic_years
		WHERE deleted_at IS NULL
		ORDER BY starts_on`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list academic years: %w", err)
	}
	defer rows.Close()

	var years []*models.AcademicYear
	for rows.Next() {
		y, err := scanAcademicYear(rows)
		if err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating academic years: %w", err)
	}
	return years, nil
}

func scanAcademicYear(row pgx.Row) (*models.AcademicYear, error) {
	var y models.AcademicYear
	err := row.Scan(
		&y.ID, &y.Name, &y.Code, &y.StartsOn, &y.EndsOn,
		&y.CreatedAt, &y.CreatedByID, &y.UpdatedAt, &y.UpdatedByID, &y.DeletedAt, &y.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &y, nil
}

const providerYearColumns = `id, provider_id, academic_year_id,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *academicYearRepository) InsertProviderLink(ctx context.Context, q database.Querier, l *models.ProviderAcademicYear) error {
	query := `
		INSERT INTO provider_academic_years (` + providerYearColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		l.ID, l.ProviderID, l.AcademicYearID,
		l.CreatedAt, l.CreatedByID, l.UpdatedAt, l.UpdatedByID, l.DeletedAt, l.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert provider academic year: %w", err)
	}
	return nil
}

func (r *academicYearRepository) UpdateProviderLink(ctx context.Context, q database.Querier, l *models.ProviderAcademicYear) error {
	query := `
		UPDATE provider_academic_years SET
			updated_at = $2, updated_by_id = $3, deleted_at = $4, deleted_by_id = $5
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, l.ID, l.UpdatedAt, l.UpdatedByID, l.DeletedAt, l.DeletedByID)
	if err != nil {
		return fmt.Errorf("failed to update provider academic year: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *academicYearRepository) GetProviderLink(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAcademicYear, error) {
	query := `SELECT ` + providerYearColumns + ` FROM provider_academic_years WHERE id = $1`

	l, err := scanProviderYear(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get provider academic year: %w", err)
	}
	return l, nil
}

// FindProviderLink returns the link row for a provider/year pair, including
// soft-deleted rows. Returns nil when no link has ever existed.
func (r *academicYearRepository) FindProviderLink(ctx context.Context, q database.Querier, providerID, academicYearID uuid.UUID) (*models.ProviderAcademicYear, error) {
	query := `
		SELECT ` + providerYearColumns + `
		FROM provider_academic_years
		WHERE provider_id = $1 AND academic_year_id = $2`

	l, err := scanProviderYear(q.QueryRow(ctx, query, providerID, academicYearID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find provider academic year: %w", err)
	}
	return l, nil
}

func (r *academicYearRepository) ListProviderLinks(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderAcademicYear, error) {
	query := `
		SELECT ` + providerYearColumns + `
		FROM provider_academic_years
		WHERE provider_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider academic years: %w", err)
	}
	defer rows.Close()

	var links []*models.ProviderAcademicYear
	for rows.Next() {
		l, err := scanProviderYear(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider academic years: %w", err)
	}
	return links, nil
}

func scanProviderYear(row pgx.Row) (*models.ProviderAcademicYear, error) {
	var l models.ProviderAcademicYear
	err := row.Scan(
		&l.ID, &l.ProviderID, &l.AcademicYearID,
		&l.CreatedAt, &l.CreatedByID, &l.UpdatedAt, &l.UpdatedByID, &l.DeletedAt, &l.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// AcademicYearRevisionRepository defines data access for academic year
// revisions.
type AcademicYearRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.AcademicYearRevision) error
	Latest(ctx context.Context, q database.Querier, academicYearID uuid.UUID) (*models.AcademicYearRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.AcademicYearRevision, error)
}

type academicYearRevisionRepository struct{}

// NewAcademicYearRevisionRepository creates a new academic year revision
// repository.
func NewAcademicYearRevisionRepository() AcademicYearRevisionRepository {
	return &academicYearRevisionRepository{}
}

var _ AcademicYearRevisionRepository = (*academicYearRevisionRepository)(nil)

const academicYearRevisionColumns = `id, academic_year_id, name, code, starts_on, ends_on,
	deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *academicYearRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.AcademicYearRevision) error {
	query := `
		INSERT INTO academic_year_revisions (` + academicYearRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.AcademicYearID, rev.Name, rev.Code, rev.StartsOn, rev.EndsOn,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert academic year revision: %w", err)
	}
	return nil
}

func (r *academicYearRevisionRepository) Latest(ctx context.Context, q database.Querier, academicYearID uuid.UUID) (*models.AcademicYearRevision, error) {
	query := `
		SELECT ` + academicYearRevisionColumns + `
		FROM academic_year_revisions
		WHERE academic_year_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanAcademicYearRevision(q.QueryRow(ctx, query, academicYearID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest academic year revision: %w", err)
	}
	return rev, nil
}

func (r *academicYearRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.AcademicYearRevision, error) {
	result := make(map[uuid.UUID]*models.AcademicYearRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + academicYearRevisionColumns + ` FROM academic_year_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get academic year revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanAcademicYearRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating academic year revisions: %w", err)
	}
	return result, nil
}

func scanAcademicYearRevision(row pgx.Row) (*models.AcademicYearRevision, error) {
	var rev models.AcademicYearRevision
	err := row.Scan(
		&rev.ID, &rev.AcademicYearID, &rev.Name, &rev.Code, &rev.StartsOn, &rev.EndsOn,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// ProviderYearRevisionRepository defines data access for provider
// academic-year link revisions.
type ProviderYearRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderAcademicYearRevision) error
	Latest(ctx context.Context, q database.Querier, linkID uuid.UUID) (*models.ProviderAcademicYearRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAcademicYearRevision, error)
}

type providerYearRevisionRepository struct{}

// NewProviderYearRevisionRepository creates a new provider academic-year
// revision repository.
func NewProviderYearRevisionRepository() ProviderYearRevisionRepository {
	return &providerYearRevisionRepository{}
}

var _ ProviderYearRevisionRepository = (*providerYearRevisionRepository)(nil)

const providerYearRevisionColumns = `id, provider_academic_year_id, provider_id, academic_year_id,
	deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *providerYearRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderAcademicYearRevision) error {
	query := `
		INSERT INTO provider_academic_year_revisions (` + providerYearRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderAcademicYearID, rev.ProviderID, rev.AcademicYearID,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert provider academic year revision: %w", err)
	}
	return nil
}

func (r *providerYearRevisionRepository) Latest(ctx context.Context, q database.Querier, linkID uuid.UUID) (*models.ProviderAcademicYearRevision, error) {
	query := `
		SELECT ` + providerYearRevisionColumns + `
		FROM provider_academic_year_revisions
		WHERE provider_academic_year_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanProviderYearRevision(q.QueryRow(ctx, query, linkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest provider academic year revision: %w", err)
	}
	return rev, nil
}

func (r *providerYearRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAcademicYearRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderAcademicYearRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + providerYearRevisionColumns + ` FROM provider_academic_year_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider academic year revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanProviderYearRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider academic year revisions: %w", err)
	}
	return result, nil
}

func scanProviderYearRevision(row pgx.Row) (*models.ProviderAcademicYearRevision, error) {
	var rev models.ProviderAcademicYearRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderAcademicYearID, &rev.ProviderID, &rev.AcademicYearID,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
