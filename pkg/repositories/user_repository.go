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

// UserRepository defines data access for back-office users.
type UserRepository interface {
	Insert(ctx context.Context, q database.Querier, u *models.User) error
	Update(ctx context.Context, q database.Querier, u *models.User) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, q database.Querier, email string) (*models.User, error)
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) error
	List(ctx context.Context, q database.Querier) ([]*models.User, error)
	NamesByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type userRepository struct{}

// NewUserRepository creates a new user repository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

var _ UserRepository = (*userRepository)(nil)

const userColumns = `id, first_name, last_name, email, active,
	created_at, created_by_id, updated_at, updated_by_id, deleted_at, deleted_by_id`

func (r *userRepository) Insert(ctx context.Context, q database.Querier, u *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Active,
		u.CreatedAt, u.CreatedByID, u.UpdatedAt, u.UpdatedByID, u.DeletedAt, u.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, q database.Querier, u *models.User) error {
	query := `
		UPDATE users SET
			first_name = $2, last_name = $3, email = $4, active = $5,
			updated_at = $6, updated_by_id = $7, deleted_at = $8, deleted_by_id = $9
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Active,
		u.UpdatedAt, u.UpdatedByID, u.DeletedAt, u.DeletedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, q database.Querier, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`

	u, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *userRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, q database.Querier) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY last_name, first_name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// NamesByIDs returns full names keyed by user id for display labels.
func (r *userRepository) NamesByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := q.Query(ctx, `SELECT id, first_name, last_name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get user names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			first string
			last  string
		)
		if err := rows.Scan(&id, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan user name: %w", err)
		}
		names[id] = first + " " + last
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user names: %w", err)
	}
	return names, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Active,
		&u.CreatedAt, &u.CreatedByID, &u.UpdatedAt, &u.UpdatedByID, &u.DeletedAt, &u.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRevisionRepository defines data access for user revisions.
type UserRevisionRepository interface {
	Insert(ctx context.Context, q database.Querier, rev *models.UserRevision) error
	Latest(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.UserRevision, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.UserRevision, error)
}

type userRevisionRepository struct{}

// NewUserRevisionRepository creates a new user revision repository.
func NewUserRevisionRepository() UserRevisionRepository {
	return &userRevisionRepository{}
}

var _ UserRevisionRepository = (*userRevisionRepository)(nil)

const userRevisionColumns = `id, user_id, first_name, last_name, email, active,
	deleted_at, deleted_by_id, revision_number, revision_at, revision_by_id`

func (r *userRevisionRepository) Insert(ctx context.Context, q database.Querier, rev *models.UserRevision) error {
	query := `
		INSERT INTO user_revisions (` + userRevisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		rev.ID, rev.UserID, rev.FirstName, rev.LastName, rev.Email, rev.Active,
		rev.DeletedAt, rev.DeletedByID, rev.RevisionNumber, rev.RevisionAt, rev.RevisionByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user revision: %w", err)
	}
	return nil
}

func (r *userRevisionRepository) Latest(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.UserRevision, error) {
	query := `
		SELECT ` + userRevisionColumns + `
		FROM user_revisions
		WHERE user_id = $1
		ORDER BY revision_number DESC
		LIMIT 1`

	rev, err := scanUserRevision(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest user revision: %w", err)
	}
	return rev, nil
}

func (r *userRevisionRepository) GetByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]*models.UserRevision, error) {
	result := make(map[uuid.UUID]*models.UserRevision, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + userRevisionColumns + ` FROM user_revisions WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get user revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanUserRevision(rows)
		if err != nil {
			return nil, err
		}
		result[rev.ID] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user revisions: %w", err)
	}
	return result, nil
}

func scanUserRevision(row pgx.Row) (*models.UserRevision, error) {
	var rev models.UserRevision
	err := row.Scan(
		&rev.ID, &rev.UserID, &rev.FirstName, &rev.LastName, &rev.Email, &rev.Active,
		&rev.DeletedAt, &rev.DeletedByID, &rev.RevisionNumber, &rev.RevisionAt, &rev.RevisionByID,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
