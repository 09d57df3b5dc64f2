package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLogEntry is one row in the shared activity_logs table: a pointer to
// a revision somewhere in the register, plus enough denormalised detail to
// render a feed without touching the revision tables.
type ActivityLogEntry struct {
	ID             uuid.UUID  `json:"id"`
	RevisionTable  string     `json:"revision_table"`
	RevisionID     uuid.UUID  `json:"revision_id"`
	EntityType     string     `json:"entity_type"`
	EntityID       uuid.UUID  `json:"entity_id"`
	RevisionNumber int        `json:"revision_number"`
	Action         string     `json:"action"`
	ChangedByID    *uuid.UUID `json:"changed_by_id,omitempty"`
	ChangedAt      time.Time  `json:"changed_at"`
}

// ActivityField is one displayed field of an activity summary.
type ActivityField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ActivitySummary is the human-readable rendering of one activity log entry,
// joined to its revision payload. Fallback labels are used when the payload
// cannot be resolved, so a feed never fails on one bad row.
type ActivitySummary struct {
	Action         string          `json:"action"`
	Activity       string          `json:"activity"` // e.g. "Provider updated"
	Label          string          `json:"label"`
	Href           string          `json:"href,omitempty"`
	Fields         []ActivityField `json:"fields"`
	EntityType     string          `json:"entity_type"`
	EntityID       uuid.UUID       `json:"entity_id"`
	RevisionNumber int             `json:"revision_number"`
	ChangedByID    *uuid.UUID      `json:"changed_by_id,omitempty"`
	ChangedAt      time.Time       `json:"changed_at"`
}
