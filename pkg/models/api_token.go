package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// APIClientToken is a hashed credential issued to an external API consumer.
// Only the hash is stored; the plaintext is shown once at issue time.
type APIClientToken struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	TokenHash   string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedByID *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (t *APIClientToken) TrackedValues() map[string]any {
	return map[string]any{
		"description":   t.Description,
		"token_hash":    t.TokenHash,
		"expires_at":    revisions.Deref(t.ExpiresAt),
		"revoked_at":    revisions.Deref(t.RevokedAt),
		"deleted_at":    revisions.Deref(t.DeletedAt),
		"deleted_by_id": revisions.Deref(t.DeletedByID),
	}
}

// Snapshot copies the token's tracked fields into a new revision.
func (t *APIClientToken) Snapshot(number int, at time.Time) *APIClientTokenRevision {
	return &APIClientTokenRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(t.UpdatedByID, t.CreatedByID),
		},
		APIClientTokenID: t.ID,
		Description:      t.Description,
		TokenHash:        t.TokenHash,
		ExpiresAt:        t.ExpiresAt,
		RevokedAt:        t.RevokedAt,
		DeletedAt:        t.DeletedAt,
		DeletedByID:      t.DeletedByID,
	}
}

// APIClientTokenRevision is stored in api_client_token_revisions.
type APIClientTokenRevision struct {
	RevisionMeta
	APIClientTokenID uuid.UUID  `json:"api_client_token_id"`
	Description      string     `json:"description"`
	TokenHash        string     `json:"-"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	DeletedByID      *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *APIClientTokenRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *APIClientTokenRevision) TrackedValues() map[string]any {
	return map[string]any{
		"description":   r.Description,
		"token_hash":    r.TokenHash,
		"expires_at":    revisions.Deref(r.ExpiresAt),
		"revoked_at":    revisions.Deref(r.RevokedAt),
		"deleted_at":    revisions.Deref(r.DeletedAt),
		"deleted_by_id": revisions.Deref(r.DeletedByID),
	}
}
