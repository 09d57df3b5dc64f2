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

// PartnershipRepository defines data access for provider partnerships and
// their academic-year and accreditation links.
type PartnershipRepository interface {
	Insert(ctx context.Context, q database.Querier, p *models.ProviderPartnership) error
	Update(ctx context.Context, q database.Querier, p *models.ProviderPartnership) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderPartnership, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderPartnership, error)
	GetByProviders(ctx context.Context, q database.Querier, trainingID, accreditedID uuid.UUID) (*models.ProviderPartnership, error)

	InsertAcademicYearLink(ctx context.Context, q database.Querier, l *models.ProviderPartnershipAcademicYear) error
	UpdateAcademicYearLink(ctx context.Context, q database.Querier, l *models.ProviderPartnershipAcademicYear) error
	GetAcademicYearLink(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderPartnershipAcademicYear, error)
	FindAcademicYearLink(ctx context.Context, q database.Querier, partnershipID, academicYearID uuid.UUID) (*models.ProviderPartnershipAcademicYear, error)
	ListAcademicYearLinks(ctx context.Context, q database.Querier, partnershipID uuid.UUID) ([]*models.ProviderPartnershipAcademicYear, error)

	InsertAccreditationLink(ctx context.Context, q database.Querier, l *models.ProviderAccreditationPartnership) error
	UpdateAccreditationLink(ctx context.Context, q database.Querier, l *models.ProviderAccreditationPartnership) error
	GetAccreditationLink(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAccreditationPartnership, error)
	FindAccreditationLink(ctx context.Context, q database.Querier, partnershipID, accreditationID uuid.UUID) (*models.ProviderAccreditationPartnership, error)
	ListAccreditationLinks(ctx context.Context, q database.Querier, partnershipID uuid.UUID) ([]*models.ProviderAccreditationPartnership, error)
}

type partnershipRepository struct{}

// NewPartnershipRepository creates a new partnership repository.
func NewPartnershipRepository() PartnershipRepository {
	return &partnershipRepository{}
}

var _ PartnershipRepository = (*partnershipRepository)(nil)

const partnershipColumns = `id, training_provider_id, accredited_provider_id,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *partnershipRepository) Insert(ctx context.Context, q database.Querier, p *models.ProviderPartnership) error {
	query := `
		INSERT INTO provider_partnerships (` + partnershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		p.ID, p.TrainingProviderID, p.AccreditedProviderID,
		p.CreatedAt, p.CreatedByID, p.UpdatedAt, p.UpdatedByID, p.DeletedAt, p.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert partnership: %w", err)
	}
	return nil
}

func (r *partnershipRepository) Update(ctx context.Context, q database.Querier, p *models.ProviderPartnership) error {
	query := `
		UPDATE provider_partnerships SET
			updated_at = $2, updated_by_id = $3, deleted_at = $4, deleted_by_id = $5
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, p.ID, p.UpdatedAt, p.UpdatedByID, p.DeletedAt, p.DeletedByID)
	if err != nil {
		return fmt.Errorf("failed to update partnership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *partnershipRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderPartnership, error) {
	query := `SELECT ` + partnershipColumns + ` FROM provider_partnerships WHERE id = $1`

	p, err := scanPartnership(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}
	return p, nil
}

func (r *partnershipRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM provider_partnerships WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock partnership: %w", err)
	}
	return nil
}

func (r *partnershipRepository) ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderPartnership, error) {
	query := `
		SELECT ` + partnershipColumns + `
		FROM provider_partnerships
		WHERE (training_provider_id = $1 OR accredited_provider_id = $1) AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list partnerships: %w", err)
	}
	defer rows.Close()

	var partnerships []*models.ProviderPartnership
	for rows.Next() {
		p, err := scanPartnership(rows)
		if err != nil {
			return nil, err
		}
		partnerships = append(partnerships, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnerships: %w", err)
	}
	return partnerships, nil
}

// GetByProviders finds the partnership between two providers regardless of
// deletion state, so callers can restore a soft-deleted one instead of
// inserting a duplicate.
func (r *partnershipRepository) GetByProviders(ctx context.Context, q database.Querier, trainingID, accreditedID uuid.UUID) (*models.ProviderPartnership, error) {
	query := `
		SELECT ` + partnershipColumns + `
		FROM provider_partnerships
		WHERE training_provider_id = $1 AND accredited_provider_id = $2`

	p, err := scanPartnership(q.QueryRow(ctx, query, trainingID, accreditedID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find partnership: %w", err)
	}
	return p, nil
}

func scanPartnership(row pgx.Row) (*models.ProviderPartnership, error) {
	var p models.ProviderPartnership
	err := row.Scan(
		&p.ID, &p.TrainingProviderID, &p.AccreditedProviderID,
		&p.CreatedAt, &p.CreatedByID, &p.UpdatedAt, &p.UpdatedByID, &p.DeletedAt, &p.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const partnershipYearColumns = `id, provider_partnership_id, academic_year_id,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *partnershipRepository) InsertAcademicYearLink(ctx context.Context, q database.Querier, l *models.ProviderPartnershipAcademicYear) error {
	query := `
		INSERT INTO provider_partnership_academic_years (` + partnershipYearColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		l.ID, l.ProviderPartnershipID, l.AcademicYearID,
		l.CreatedAt, l.CreatedByID, l.UpdatedAt, l.UpdatedByID, l.DeletedAt, l.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert partnership academic year: %w", err)
	}
	return nil
}

func (r *partnershipRepository) UpdateAcademicYearLink(ctx context.Context, q database.Querier, l *models.ProviderPartnershipAcademicYear) error {
	query := `
		UPDATE provider_partnership_academic_years SET
			updated_at = $2, updated_by_id = $3, deleted_at = $4, deleted_by_id = $5
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, l.ID, l.UpdatedAt, l.UpdatedByID, l.DeletedAt, l.DeletedByID)
	if err != nil {
		return fmt.Errorf("failed to update partnership academic year: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *partnershipRepository) GetAcademicYearLink(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderPartnershipAcademicYear, error) {
	query := `SELECT ` + partnershipYearColumns + ` FROM provider_partnership_academic_years WHERE id = $1`

	l, err := scanPartnershipYear(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partnership academic year: %w", err)
	}
	return l, nil
}

// FindAcademicYearLink returns the link row for a partnership/year pair,
// including soft-deleted rows. Returns nil when no link has ever existed.
func (r *partnershipRepository) FindAcademicYearLink(ctx context.Context, q database.Querier, partnershipID, academicYearID uuid.UUID) (*models.ProviderPartnershipAcademicYear, error) {
	query := `
		SELECT ` + partnershipYearColumns + `
		FROM provider_partnership_academic_years
		WHERE provider_partnership_id = $1 AND academic_year_id = $2`

	l, err := scanPartnershipYear(q.QueryRow(ctx, query, partnershipID, academicYearID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find partnership academic year: %w", err)
	}
	return l, nil
}

func (r *partnershipRepository) ListAcademicYearLinks(ctx context.Context, q database.Querier, partnershipID uuid.UUID) ([]*models.ProviderPartnershipAcademicYear, error) {
	query := `
		SELECT ` + partnershipYearColumns + `
		FROM provider_partnership_academic_years
		WHERE provider_partnership_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, partnershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list partnership academic years: %w", err)
	}
	defer rows.Close()

	var links []*models.ProviderPartnershipAcademicYear
	for rows.Next() {
		l, err := scanPartnershipYear(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnership academic years: %w", err)
	}
	return links, nil
}

func scanPartnershipYear(row pgx.Row) (*models.ProviderPartnershipAcademicYear, error) {
	var l models.ProviderPartnershipAcademicYear
	err := row.Scan(
		&l.ID, &l.ProviderPartnershipID, &l.AcademicYearID,
		&l.CreatedAt, &l.CreatedByID, &l.UpdatedAt, &l.UpdatedByID, &l.DeletedAt, &l.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const accreditationPartnershipColumns = `id, provider_partnership_id, provider_accreditation_id,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *partnershipRepository) InsertAccreditationLink(ctx context.Context, q database.Querier, l *models.ProviderAccreditationPartnership) error {
	query := `
		INSERT INTO provider_accreditation_partnerships (` + accreditationPartnershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		l.ID, l.ProviderPartnershipID, l.ProviderAccreditationID,
		l.CreatedAt, l.CreatedByID, l.UpdatedAt, l.UpdatedByID, l.DeletedAt, l.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert accreditation partnership: %w", err)
	}
	return nil
}

func (r *partnershipRepository) UpdateAccreditationLink(ctx context.Context, q database.Querier, l *models.ProviderAccreditationPartnership) error {
	query := `
		UPDATE provider_accreditation_partnerships SET
			updated_at = $2, updated_by_id = $3, deleted_at = $4, deleted_by_id = $5
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, l.ID, l.UpdatedAt, l.UpdatedByID, l.DeletedAt, l.DeletedByID)
	if err != nil {
		return fmt.Errorf("failed to update accreditation partnership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *partnershipRepository) GetAccreditationLink(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAccreditationPartnership, error) {
	query := `SELECT ` + accreditationPartnershipColumns + ` FROM provider_accreditation_partnerships WHERE id = $1`

	l, err := scanAccreditationPartnership(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get accreditation partnership: %w", err)
	}
	return l, nil
}

// FindAccreditationLink returns the link row for a partnership/accreditation
// pair, including soft-deleted rows. Returns nil when no link has ever
// existed.
func (r *partnershipRepository) FindAccreditationLink(ctx context.Context, q database.Querier, partnershipID, accreditationID uuid.UUID) (*models.ProviderAccreditationPartnership, error) {
	query := `
		SELECT ` + accreditationPartnershipColumns + `
		FROM provider_accreditation_partnerships
		WHERE provider_partnership_id = $1 AND provider_accreditation_id = $2`

	l, err := scanAccreditationPartnership(q.QueryRow(ctx, query, partnershipID, accreditationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find accreditation partnership: %w", err)
	}
	return l, nil
}

func (r *partnershipRepository) ListAccreditationLinks(ctx context.Context, q database.Querier, partnershipID uuid.UUID) ([]*models.ProviderAccreditationPartnership, error) {
	query := `
		SELECT ` + accreditationPartnershipColumns + `
		FROM provider_accreditation_partnerships
		WHERE provider_partnership_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, partnershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accreditation partnerships: %w", err)
	}
	defer rows.Close()

	var links []*models.ProviderAccreditationPartnership
	for rows.Next() {
		l, err := scanAccreditationPartnership(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accreditation partnerships: %w", err)
	}
	return links, nil
}

func scanAccreditationPartnership(row pgx.Row) (*models.ProviderAccreditationPartnership, error) {
	var l models.ProviderAccreditationPartnership
	err := row.Scan(
		&l.ID, &l.ProviderPartnershipID, &l.ProviderAccreditationID,
		&l.CreatedAt, &l.CreatedByID, &l.UpdatedAt, &l.UpdatedByID, &l.DeletedAt, &l.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
