// Package revisions holds the pure pieces of the revision subsystem: change
// detection over tracked field values, actor precedence, and action
// classification. Everything stateful (persistence, numbering, activity
// logging) lives with the repositories and services.
package revisions

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded on activity log rows.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Changed reports whether any tracked field differs between the entity's
// current values and the values captured by its newest revision. Comparison is
// strict value equality with no coercion; time values compare by instant.
// Fields absent from previous count as changed, so widening an allowlist
// produces one revision capturing the newly tracked fields.
func Changed(current, previous map[string]any) bool {
	for key, cur := range current {
		prev, ok := previous[key]
		if !ok || !equalValue(cur, prev) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

// Actor resolves who is responsible for a revision: the entity's last updater,
// falling back to its creator, falling back to nil for system writes.
func Actor(updatedBy, createdBy *uuid.UUID) *uuid.UUID {
	if updatedBy != nil {
		return updatedBy
	}
	return createdBy
}

// ActionFor classifies a freshly written revision. The first revision is a
// create; a revision capturing a set deleted_at is a (soft) delete; anything
// else is an update.
func ActionFor(revisionNumber int, deletedAt *time.Time) string {
	if revisionNumber == 1 {
		return ActionCreate
	}
	if deletedAt != nil {
		return ActionDelete
	}
	return ActionUpdate
}

// Deref returns the value behind p, or nil for absent optional fields. Used by
// the hand-written TrackedValues mappings so pointer-typed columns compare by
// value in Changed.
func Deref[T comparable](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
