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

// AddressRepository defines data access for provider addresses.
type AddressRepository interface {
	Insert(ctx context.Context, q database.Querier, a *models.ProviderAddress) error
	Update(ctx context.Context, q database.Querier, a *models.ProviderAddress) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAddress, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderAddress, error)
}

type addressRepository struct{}

// NewAddressRepository creates a new address repository.
func NewAddressRepository() AddressRepository {
	return &addressRepository{}
}

var _ AddressRepository = (*addressRepository)(nil)

const addressColumns = `id, provider_id, line1, line2, line3, town, county, postcode,
	latitude, longitude, created_at, created_by_id, updated_at, updated_by_id,
	deleted_at, deleted_by_id`

func (r *addressRepository) Insert(ctx context.Context, q database.Querier, a *models.ProviderAddress) error {
	query := `
		INSERT INTO provider_addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := q.Exec(ctx, query,
		a.ID, a.ProviderID, a.Line1, a.Line2, a.Line3, a.Town, a.County, a.Postcode,
		a.Latitude, a.Longitude, a.CreatedAt, a.CreatedByID, a.UpdatedAt, a.UpdatedByID,
		a.DeletedAt, a.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}
	return nil
}

func (r *addressRepository) Update(ctx context.Context, q database.Querier, a *models.ProviderAddress) error {
	query := `
		UPDATE provider_addresses SET
			line1 = $2, line2 = $3, line3 = $4, town = $5, county = $6,
			postcode = $7, latitude = $8, longitude = $9, updated_at = $10,
			updated_by_id = $11, deleted_at = $12, deleted_by_id = $13
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		a.ID, a.Line1, a.Line2, a.Line3, a.Town, a.County,
		a.Postcode, a.Latitude, a.Longitude, a.UpdatedAt,
		a.UpdatedByID, a.DeletedAt, a.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *addressRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderAddress, error) {
	query := `SELECT ` + addressColumns + ` FROM provider_addresses WHERE id = $1`

	a, err := scanAddress(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return a, nil
}

func (r *addressRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM provider_addresses WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock address: %w", err)
	}
	return nil
}

func (r *addressRepository) ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderAddress, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM provider_addresses
		WHERE provider_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*models.ProviderAddress
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

func scanAddress(row pgx.Row) (*models.ProviderAddress, error) {
	var a models.ProviderAddress
	err := row.Scan(
		&a.ID, &a.ProviderID, &a.Line1, &a.Line2, &a.Line3, &a.Town, &a.County, &a.Postcode,
		&a.Latitude, &a.Longitude, &a.CreatedAt, &a.CreatedByID, &a.UpdatedAt, &a.UpdatedByID,
		&a.DeletedAt, &a.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AddressRevisionRepository defines data access for address revisions.
type AddressRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderAddressRevision) error
	Latest(ctx context.Context, q database.Querier, addressID uuid.UUID) (*models.ProviderAddressRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAddressRevision, error)
}

type addressRevisionRepository struct{}

// NewAddressRevisionRepository creates a new address revision repository.
func NewAddressRevisionRepository() AddressRevisionRepository {
	return &addressRevisionRepository{}
}

var _ AddressRevisionRepository = (*addressRevisionRepository)(nil)

const addressRevisionColumns = `id, provider_address_id, provider_id, line1, line2, line3,
	town, county, postcode, latitude, longitude, deleted_at, deleted_by_id,
	revision_number, revision_at, revision_by_id`

func (r *addressRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderAddressRevision) error {
	query := `
		INSERT INTO provider_address_revisions (` + addressRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderAddressID, rev.ProviderID, rev.Line1, rev.Line2, rev.Line3,
		rev.Town, rev.County, rev.Postcode, rev.Latitude, rev.Longitude,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert address revision: %w", err)
	}
	return nil
}

func (r *addressRevisionRepository) Latest(ctx context.Context, q database.Querier, addressID uuid.UUID) (*models.ProviderAddressRevision, error) {
	query := `
		SELECT ` + addressRevisionColumns + `
		FROM provider_address_revisions
		WHERE provider_address_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanAddressRevision(q.QueryRow(ctx, query, addressID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest address revision: %w", err)
	}
	return rev, nil
}

func (r *addressRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderAddressRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderAddressRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + addressRevisionColumns + ` FROM provider_address_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get address revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanAddressRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating address revisions: %w", err)
	}
	return result, nil
}

func scanAddressRevision(row pgx.Row) (*models.ProviderAddressRevision, error) {
	var rev models.ProviderAddressRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderAddressID, &rev.ProviderID, &rev.Line1, &rev.Line2, &rev.Line3,
		&rev.Town, &rev.County, &rev.Postcode, &rev.Latitude, &rev.Longitude,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan address revision: %w", err)
	}
	return &rev, nil
}
