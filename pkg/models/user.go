package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// User is a back-office user of the register.
type User struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedByID *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

// FullName concatenates first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) TrackedValues() map[string]any {
	return map[string]any{
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"email":         u.Email,
		"active":        u.Active,
		"deleted_at":    revisions.Deref(u.DeletedAt),
		"deleted_by_id": revisions.Deref(u.DeletedByID),
	}
}

// Snapshot copies the user's tracked fields into a new revision.
func (u *User) Snapshot(number int, at time.Time) *UserRevision {
	return &UserRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(u.UpdatedByID, u.CreatedByID),
		},
		UserID:      u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Active:      u.Active,
		DeletedAt:   u.DeletedAt,
		DeletedByID: u.DeletedByID,
	}
}

// UserRevision is stored in user_revisions.
type UserRevision struct {
	RevisionMeta
	UserID      uuid.UUID  `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Active      bool       `json:"active"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *UserRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *UserRevision) TrackedValues() map[string]any {
	return map[string]any{
		"first_name":    r.FirstName,
		"last_name":     r.LastName,
		"email":         r.Email,
		"active":        r.Active,
		"deleted_at":    revisions.Deref(r.DeletedAt),
		"deleted_by_id": revisions.Deref(r.DeletedByID),
	}
}
