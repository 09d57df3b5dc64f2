package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
)

// ProviderScope describes how rows of one revision table relate back to a
// provider. Join and Cond are SQL fragments interpolated into queries, so they
// must come from compile-time registry constants, never from request input.
// The revision table is aliased r; Cond references $1 as the provider id.
type ProviderScope struct {
	Table string
	Join  string
	Cond  string
}

// ActivityLogRepository defines data access for the shared activity log.
type ActivityLogRepository interface {
	Insert(ctx context.Context, q database.Querier, e *models.ActivityLogEntry) error
	List(ctx context.Context, q database.Querier, limit, offset int) ([]*models.ActivityLogEntry, error)
	Count(ctx context.Context, q database.Querier) (int, error)
	ListByActor(ctx context.Context, q database.Querier, actorID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error)
	CountByActor(ctx context.Context, q database.Querier, actorID uuid.UUID) (int, error)
	ListForEntity(ctx context.Context, q database.Querier, entityType string, entityID uuid.UUID) ([]*models.ActivityLogEntry, error)
	ListForProviderScope(ctx context.Context, q database.Querier, scope ProviderScope, providerID uuid.UUID) ([]*models.ActivityLogEntry, error)
	CountForProviderScope(ctx context.Context, q database.Querier, scope ProviderScope, providerID uuid.UUID) (int, error)
}

type activityLogRepository struct{}

// NewActivityLogRepository creates a new activity log repository.
func NewActivityLogRepository() ActivityLogRepository {
	return &activityLogRepository{}
}

var _ ActivityLogRepository = (*activityLogRepository)(nil)

const activityLogColumns = `id, revision_table, revision_id, entity_type, entity_id,
	revision_number, action, changed_by_id, changed_at`

func (r *activityLogRepository) Insert(ctx context.Context, q database.Querier, e *models.ActivityLogEntry) error {
	query := `
		INSERT INTO activity_logs (` + activityLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		e.ID, e.RevisionTable, e.RevisionID, e.EntityType, e.EntityID,
		e.RevisionNumber, e.Action, e.ChangedByID, e.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log entry: %w", err)
	}
	return nil
}

func (r *activityLogRepository) List(ctx context.Context, q database.Querier, limit, offset int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityLogColumns + `
		FROM activity_logs
		ORDER BY changed_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log entries: %w", err)
	}
	defer rows.Close()

	return collectActivityEntries(rows)
}

func (r *activityLogRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activity log entries: %w", err)
	}
	return count, nil
}

func (r *activityLogRepository) ListByActor(ctx context.Context, q database.Querier, actorID uuid.UUID, limit, offset int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityLogColumns + `
		FROM activity_logs
		WHERE changed_by_id = $1
		ORDER BY changed_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := q.Query(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log entries by actor: %w", err)
	}
	defer rows.Close()

	return collectActivityEntries(rows)
}

func (r *activityLogRepository) CountByActor(ctx context.Context, q database.Querier, actorID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs WHERE changed_by_id = $1`, actorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity log entries by actor: %w", err)
	}
	return count, nil
}

// ListForEntity returns one entity's full history, newest first.
func (r *activityLogRepository) ListForEntity(ctx context.Context, q database.Querier, entityType string, entityID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT ` + activityLogColumns + `
		FROM activity_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY changed_at DESC, id`

	rows, err := q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log entries for entity: %w", err)
	}
	defer rows.Close()

	return collectActivityEntries(rows)
}

func (r *activityLogRepository) ListForProviderScope(ctx context.Context, q database.Querier, scope ProviderScope, providerID uuid.UUID) ([]*models.ActivityLogEntry, error) {
	query := fmt.Sprintf(`
		SELECT a.id, a.revision_table, a.revision_id, a.entity_type, a.entity_id,
			a.revision_number, a.action, a.changed_by_id, a.changed_at
		FROM activity_logs a
		JOIN %s r ON r.id = a.revision_id
		%s
		WHERE a.revision_table = '%s' AND %s
		ORDER BY a.changed_at DESC, a.id`,
		scope.Table, scope.Join, scope.Table, scope.Cond)

	rows, err := q.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s activity for provider: %w", scope.Table, err)
	}
	defer rows.Close()

	return collectActivityEntries(rows)
}

func (r *activityLogRepository) CountForProviderScope(ctx context.Context, q database.Querier, scope ProviderScope, providerID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM activity_logs a
		JOIN %s r ON r.id = a.revision_id
		%s
		WHERE a.revision_table = '%s' AND %s`,
		scope.Table, scope.Join, scope.Table, scope.Cond)

	var count int
	if err := q.QueryRow(ctx, query, providerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s activity for provider: %w", scope.Table, err)
	}
	return count, nil
}

func collectActivityEntries(rows pgx.Rows) ([]*models.ActivityLogEntry, error) {
	var entries []*models.ActivityLogEntry
	for rows.Next() {
		var e models.ActivityLogEntry
		err := rows.Scan(
			&e.ID, &e.RevisionTable, &e.RevisionID, &e.EntityType, &e.EntityID,
			&e.RevisionNumber, &e.Action, &e.ChangedByID, &e.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log entries: %w", err)
	}
	return entries, nil
}
