// Package services holds the register's business logic. Every mutation runs
// inside one transaction that writes the entity row, its revision snapshot,
// and the matching activity log entry together.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
	"github.com/trainhub/register-engine/pkg/revisions"
)

// revisionWriter appends revisions and their activity log rows. It is shared
// by every entity service so numbering and logging behave identically across
// entity types.
type revisionWriter struct {
	activityRepo repositories.ActivityLogRepository
	logger       *zap.Logger
	now          func() time.Time
}

func newRevisionWriter(activityRepo repositories.ActivityLogRepository, logger *zap.Logger) *revisionWriter {
	return &revisionWriter{
		activityRepo: activityRepo,
		logger:       logger.Named("revision-writer"),
		now:          time.Now,
	}
}

// revisionInput describes one pending revision write. Head is the entity's
// newest existing revision, nil for a first write. Persist must snapshot the
// entity at the given number and timestamp and insert the row, returning what
// it inserted.
type revisionInput struct {
	Table      string
	EntityType string
	EntityID   uuid.UUID
	Values     map[string]any
	DeletedAt  *time.Time
	Head       models.RevisionRecord
	Persist    func(number int, at time.Time) (models.RevisionRecord, error)
}

// Record writes the next revision for an entity plus exactly one activity log
// row pointing at it. When the entity's tracked values match the head revision
// nothing is written: a save that changes nothing leaves no trace. Numbering
// is gapless per entity, starting at 1.
func (w *revisionWriter) Record(ctx context.Context, q database.Querier, in revisionInput) error {
	number := 1
	if in.Head != nil {
		if !revisions.Changed(in.Values, in.Head.TrackedValues()) {
			return nil
		}
		number = in.Head.Meta().RevisionNumber + 1
	}

	rev, err := in.Persist(number, w.now().UTC())
	if err != nil {
		return err
	}

	meta := rev.Meta()
	if meta.ID == uuid.Nil || in.EntityID == uuid.Nil {
		// A malformed snapshot is logged and skipped rather than aborting
		// the caller's transaction.
		w.logger.Warn("Skipping activity log entry with missing ids",
			zap.String("revision_table", in.Table),
			zap.String("entity_type", in.EntityType))
		return nil
	}

	entry := &models.ActivityLogEntry{
		ID:             uuid.New(),
		RevisionTable:  in.Table,
		RevisionID:     meta.ID,
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		RevisionNumber: meta.RevisionNumber,
		Action:         revisions.ActionFor(meta.RevisionNumber, in.DeletedAt),
		ChangedByID:    meta.RevisionByID,
		ChangedAt:      meta.RevisionAt,
	}
	if err := w.activityRepo.Insert(ctx, q, entry); err != nil {
		return fmt.Errorf("failed to log %s activity: %w", in.EntityType, err)
	}
	return nil
}

// headRecord boxes a typed head revision for revisionInput, keeping a nil
// pointer as a nil interface.
func headRecord[T any, P interface {
	*T
	models.RevisionRecord
}](head P) models.RevisionRecord {
	if head == nil {
		return nil
	}
	return head
}
