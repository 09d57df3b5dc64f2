package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
)

// PartnershipRevisionRepository defines data access for partnership revisions.
type PartnershipRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderPartnershipRevision) error
	Latest(ctx context.Context, q database.Querier, partnershipID uuid.UUID) (*models.ProviderPartnershipRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderPartnershipRevision, error)
}

type partnershipRevisionRepository struct{}

// NewPartnershipRevisionRepository creates a new partnership revision repository.
func NewPartnershipRevisionRepository() PartnershipRevisionRepository {
	return &partnershipRevisionRepository{}
}

var _ PartnershipRevisionRepository = (*partnershipRevisionRepository)(nil)

const partnershipRevisionColumns = `id, provider_partnership_id, training_provider_id,
	accredited_provider_id, deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *partnershipRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderPartnershipRevision) error {
	query := `
		INSERT INTO provider_partnership_revisions (` + partnershipRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderPartnershipID, rev.TrainingProviderID, rev.AccreditedProviderID,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert partnership revision: %w", err)
	}
	return nil
}

func (r *partnershipRevisionRepository) Latest(ctx context.Context, q database.Querier, partnershipID uuid.UUID) (*models.ProviderPartnershipRevision, error) {
	query := `
		SELECT ` + partnershipRevisionColumns + `
		FROM provider_partnership_revisions
		WHERE provider_partnership_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanPartnershipRevision(q.QueryRow(ctx, query, partnershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest partnership revision: %w", err)
	}
	return rev, nil
}

func (r *partnershipRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderPartnershipRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderPartnershipRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + partnershipRevisionColumns + ` FROM provider_partnership_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get partnership revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanPartnershipRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnership revisions: %w", err)
	}
	return result, nil
}

func scanPartnershipRevision(row pgx.Row) (*models.ProviderPartnershipRevision, error) {
	var rev models.ProviderPartnershipRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderPartnershipID, &rev.TrainingProviderID, &rev.AccreditedProviderID,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// PartnershipYearRevisionRepository defines data access for partnership
// academic-year link revisions.
type PartnershipYearRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderPartnershipAcademicYearRevision) error
	Latest(ctx context.Context, q database.Querier, linkID uuid.UUID) (*models.ProviderPartnershipAcademicYearRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderPartnershipAcademicYearRevision, error)
}

type partnershipYearRevisionRepository struct{}

// NewPartnershipYearRevisionRepository creates a new partnership academic-year
// revision repository.
func NewPartnershipYearRevisionRepository() PartnershipYearRevisionRepository {
	return &partnershipYearRevisionRepository{}
}

var _ PartnershipYearRevisionRepository = (*partnershipYearRevisionRepository)(nil)

const partnershipYearRevisionColumns = `id, provider_partnership_academic_year_id,
	provider_partnership_id, academic_year_id, deleted_at, deleted_by_id,
	revision_number, revision_at, revision_by_id`

func (r *partnershipYearRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderPartnershipAcademicYearRevision) error {
	query := `
		INSERT INTO provider_partnership_academic_year_revisions (` + partnershipYearRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderPartnershipAcademicYearID, rev.ProviderPartnershipID, rev.AcademicYearID,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert partnership academic year revision: %w", err)
	}
	return nil
}

func (r *partnershipYearRevisionRepository) Latest(ctx context.Context, q database.Querier, linkID uuid.UUID) (*models.ProviderPartnershipAcademicYearRevision, error) {
	query := `
		SELECT ` + partnershipYearRevisionColumns + `
		FROM provider_partnership_academic_year_revisions
		WHERE provider_partnership_academic_year_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanPartnershipYearRevision(q.QueryRow(ctx, query, linkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest partnership academic year revision: %w", err)
	}
	return rev, nil
}

func (r *partnershipYearRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderPartnershipAcademicYearRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderPartnershipAcademicYearRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + partnershipYearRevisionColumns + ` FROM provider_partnership_academic_year_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get partnership academic year revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanPartnershipYearRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partnership academic year revisions: %w", err)
	}
	return result, nil
}

func scanPartnershipYearRevision(row pgx.Row) (*models.ProviderPartnershipAcademicYearRevision, error) {
	var rev models.ProviderPartnershipAcademicYearRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderPartnershipAcademicYearID, &rev.ProviderPartnershipID, &rev.AcademicYearID,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// AccreditationPartnershipRevisionRepository defines data access for
// accreditation-partnership link revisions.
type AccreditationPartnershipRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderAccreditationPartnershipRevision) error
	Latest(ctx context.Context, q database.Querier, linkID uuid.UUID) (*models.ProviderAccreditationPartnershipRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAccreditationPartnershipRevision, error)
}

type accreditationPartnershipRevisionRepository struct{}

// NewAccreditationPartnershipRevisionRepository creates a new
// accreditation-partnership revision repository.
func NewAccreditationPartnershipRevisionRepository() AccreditationPartnershipRevisionRepository {
	return &accreditationPartnershipRevisionRepository{}
}

var _ AccreditationPartnershipRevisionRepository = (*accreditationPartnershipRevisionRepository)(nil)

const accreditationPartnershipRevisionColumns = `id, provider_accreditation_partnership_id,
	provider_partnership_id, provider_accreditation_id, deleted_at, deleted_by_id,
	revision_number, revision_at, revision_by_id`

func (r *accreditationPartnershipRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderAccreditationPartnershipRevision) error {
	query := `
		INSERT INTO provider_accreditation_partnership_revisions (` + accreditationPartnershipRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderAccreditationPartnershipID, rev.ProviderPartnershipID, rev.ProviderAccreditationID,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert accreditation partnership revision: %w", err)
	}
	return nil
}

func (r *accreditationPartnershipRevisionRepository) Latest(ctx context.Context, q database.Querier, linkID uuid.UUID) (*models.ProviderAccreditationPartnershipRevision, error) {
	query := `
		SELECT ` + accreditationPartnershipRevisionColumns + `
		FROM provider_accreditation_partnership_revisions
		WHERE provider_accreditation_partnership_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanAccreditationPartnershipRevision(q.QueryRow(ctx, query, linkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest accreditation partnership revision: %w", err)
	}
	return rev, nil
}

func (r *accreditationPartnershipRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAccreditationPartnershipRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderAccreditationPartnershipRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + accreditationPartnershipRevisionColumns + ` FROM provider_accreditation_partnership_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get accreditation partnership revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanAccreditationPartnershipRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accreditation partnership revisions: %w", err)
	}
	return result, nil
}

func scanAccreditationPartnershipRevision(row pgx.Row) (*models.ProviderAccreditationPartnershipRevision, error) {
	var rev models.ProviderAccreditationPartnershipRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderAccreditationPartnershipID, &rev.ProviderPartnershipID, &rev.ProviderAccreditationID,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
