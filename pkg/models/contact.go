package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// ProviderContact is a named contact at a provider.
type ProviderContact struct {
	ID          uuid.UUID  `json:"id"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Telephone   *string    `json:"telephone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedByID *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (c *ProviderContact) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":   c.ProviderID,
		"first_name":    c.FirstName,
		"last_name":     c.LastName,
		"email":         c.Email,
		"telephone":     revisions.Deref(c.Telephone),
		"deleted_at":    revisions.Deref(c.DeletedAt),
		"deleted_by_id": revisions.Deref(c.DeletedByID),
	}
}

// Snapshot copies the contact's tracked fields into a new revision.
func (c *ProviderContact) Snapshot(number int, at time.Time) *ProviderContactRevision {
	return &ProviderContactRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(c.UpdatedByID, c.CreatedByID),
		},
		ProviderContactID: c.ID,
		ProviderID:        c.ProviderID,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Email:             c.Email,
		Telephone:         c.Telephone,
		DeletedAt:         c.DeletedAt,
		DeletedByID:       c.DeletedByID,
	}
}

// ProviderContactRevision is stored in provider_contact_revisions.
type ProviderContactRevision struct {
	RevisionMeta
	ProviderContactID uuid.UUID  `json:"provider_contact_id"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	Telephone         *string    `json:"telephone,omitempty"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	DeletedByID       *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderContactRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderContactRevision) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":   r.ProviderID,
		"first_name":    r.FirstName,
		"last_name":     r.LastName,
		"email":         r.Email,
		"telephone":     revisions.Deref(r.Telephone),
		"deleted_at":    revisions.Deref(r.DeletedAt),
		"deleted_by_id": revisions.Deref(r.DeletedByID),
	}
}
