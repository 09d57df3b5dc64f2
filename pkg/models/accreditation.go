package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// ProviderAccreditation records a provider's accreditation over a date range.
// An open-ended accreditation has a nil EndsOn.
type ProviderAccreditation struct {
	ID          uuid.UUID  `json:"id"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	Number      string     `json:"number"`
	StartsOn    time.Time  `json:"starts_on"`
	EndsOn      *time.Time `json:"ends_on,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedByID *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

// CurrentAt reports whether the accreditation is valid at the given instant:
// started, not yet ended (or open-ended), and not soft-deleted.
func (a *ProviderAccreditation) CurrentAt(now time.Time) bool {
	if a.DeletedAt != nil {
		return false
	}
	if a.StartsOn.After(now) {
		return false
	}
	return a.EndsOn == nil || !a.EndsOn.Before(now)
}

func (a *ProviderAccreditation) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":   a.ProviderID,
		"number":        a.Number,
		"starts_on":     a.StartsOn,
		"ends_on":       revisions.Deref(a.EndsOn),
		"deleted_at":    revisions.Deref(a.DeletedAt),
		"deleted_by_id": revisions.Deref(a.DeletedByID),
	}
}

// Snapshot copies the accreditation's tracked fields into a new revision.
func (a *ProviderAccreditation) Snapshot(number int, at time.Time) *ProviderAccreditationRevision {
	return &ProviderAccreditationRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(a.UpdatedByID, a.CreatedByID),
		},
		ProviderAccreditationID: a.ID,
		ProviderID:              a.ProviderID,
		Number:                  a.Number,
		StartsOn:                a.StartsOn,
		EndsOn:                  a.EndsOn,
		DeletedAt:               a.DeletedAt,
		DeletedByID:             a.DeletedByID,
	}
}

// ProviderAccreditationRevision is stored in provider_accreditation_revisions.
type ProviderAccreditationRevision struct {
	RevisionMeta
	ProviderAccreditationID uuid.UUID  `json:"provider_accreditation_id"`
	ProviderID              uuid.UUID  `json:"provider_id"`
	Number                  string     `json:"number"`
	StartsOn                time.Time  `json:"starts_on"`
	EndsOn                  *time.Time `json:"ends_on,omitempty"`
	DeletedAt               *time.Time `json:"deleted_at,omitempty"`
	DeletedByID             *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderAccreditationRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderAccreditationRevision) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":   r.ProviderID,
		"number":        r.Number,
		"starts_on":     r.StartsOn,
		"ends_on":       revisions.Deref(r.EndsOn),
		"deleted_at":    revisions.Deref(r.DeletedAt),
		"deleted_by_id": revisions.Deref(r.DeletedByID),
	}
}
