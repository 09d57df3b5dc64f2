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

// ContactRepository defines data access for provider contacts.
type ContactRepository interface {
	Insert(ctx context.Context, q database.Querier, c *models.ProviderContact) error
	Update(ctx context.Context, q database.Querier, c *models.ProviderContact) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderContact, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderContact, error)
}

type contactRepository struct{}

// NewContactRepository creates a new contact repository.
func NewContactRepository() ContactRepository {
	return &contactRepository{}
}

var _ ContactRepository = (*contactRepository)(nil)

const contactColumns = `id, provider_id, first_name, last_name, email, telephone,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *contactRepository) Insert(ctx context.Context, q database.Querier, c *models.ProviderContact) error {
	query := `
		INSERT INTO provider_contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q.Exec(ctx, query,
		c.ID, c.ProviderID, c.FirstName, c.LastName, c.Email, c.Telephone,
		c.CreatedAt, c.CreatedByID, c.UpdatedAt, c.UpdatedByID, c.DeletedAt, c.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Update(ctx context.Context, q database.Querier, c *models.ProviderContact) error {
	query := `
		UPDATE provider_contacts SET
			first_name = $2, last_name = $3, email = $4, telephone = $5,
			updated_at = $6, updated_by_id = $7, deleted_at = $8, deleted_by_id = $9
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Telephone,
		c.UpdatedAt, c.UpdatedByID, c.DeletedAt, c.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *contactRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderContact, error) {
	query := `SELECT ` + contactColumns + ` FROM provider_contacts WHERE id = $1`

	c, err := scanContact(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

func (r *contactRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM provider_contacts WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock contact: %w", err)
	}
	return nil
}

func (r *contactRepository) ListByProvider(ctx context.Context, q database.Querier, providerID uuid.UUID) ([]*models.ProviderContact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM provider_contacts
		WHERE provider_id = $1 AND deleted_at IS NULL
		ORDER BY last_name, first_name`

	rows, err := q.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.ProviderContact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (*models.ProviderContact, error) {
	var c models.ProviderContact
	err := row.Scan(
		&c.ID, &c.ProviderID, &c.FirstName, &c.LastName, &c.Email, &c.Telephone,
		&c.CreatedAt, &c.CreatedByID, &c.UpdatedAt, &c.UpdatedByID, &c.DeletedAt, &c.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ContactRevisionRepository defines data access for contact revisions.
type ContactRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.ProviderContactRevision) error
	Latest(ctx context.Context, q database.Querier, contactID uuid.UUID) (*models.ProviderContactRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderContactRevision, error)
}

type contactRevisionRepository struct{}

// NewContactRevisionRepository creates a new contact revision repository.
func NewContactRevisionRepository() ContactRevisionRepository {
	return &contactRevisionRepository{}
}

var _ ContactRevisionRepository = (*contactRevisionRepository)(nil)

const contactRevisionColumns = `id, provider_contact_id, provider_id, first_name, last_name,
	email, telephone, deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *contactRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.ProviderContactRevision) error {
	query := `
		INSERT INTO provider_contact_revisions (` + contactRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.ProviderContactID, rev.ProviderID, rev.FirstName, rev.LastName,
		rev.Email, rev.Telephone, rev.DeletedAt, rev.DeletedByID,
		rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact revision: %w", err)
	}
	return nil
}

func (r *contactRevisionRepository) Latest(ctx context.Context, q database.Querier, contactID uuid.UUID) (*models.ProviderContactRevision, error) {
	query := `
		SELECT ` + contactRevisionColumns + `
		FROM provider_contact_revisions
		WHERE provider_contact_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanContactRevision(q.QueryRow(ctx, query, contactID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest contact revision: %w", err)
	}
	return rev, nil
}

func (r *contactRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.ProviderContactRevision, error) {
	result := make(map[uuid.UUID]*models.ProviderContactRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + contactRevisionColumns + ` FROM provider_contact_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanContactRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact revisions: %w", err)
	}
	return result, nil
}

func scanContactRevision(row pgx.Row) (*models.ProviderContactRevision, error) {
	var rev models.ProviderContactRevision
	err := row.Scan(
		&rev.ID, &rev.ProviderContactID, &rev.ProviderID, &rev.FirstName, &rev.LastName,
		&rev.Email, &rev.Telephone, &rev.DeletedAt, &rev.DeletedByID,
		&rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contact revision: %w", err)
	}
	return &rev, nil
}
