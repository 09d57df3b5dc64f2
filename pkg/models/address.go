package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// ProviderAddress is a postal address attached to a provider. Latitude and
// longitude are filled in by the geocoding step outside this service.
type ProviderAddress struct {
	ID          uuid.UUID  `json:"id"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	Line1       string     `json:"line1"`
	Line2       *string    `json:"line2,omitempty"`
	Line3       *string    `json:"line3,omitempty"`
	Town        string     `json:"town"`
	County      *string    `json:"county,omitempty"`
	Postcode    string     `json:"postcode"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedByID *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (a *ProviderAddress) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":   a.ProviderID,
		"line1":         a.Line1,
		"line2":         revisions.Deref(a.Line2),
		"line3":         revisions.Deref(a.Line3),
		"town":          a.Town,
		"county":        revisions.Deref(a.County),
		"postcode":      a.Postcode,
		"latitude":      revisions.Deref(a.Latitude),
		"longitude":     revisions.Deref(a.Longitude),
		"deleted_at":    revisions.Deref(a.DeletedAt),
		"deleted_by_id": revisions.Deref(a.DeletedByID),
	}
}

// Snapshot copies the address's tracked fields into a new revision.
func (a *ProviderAddress) Snapshot(number int, at time.Time) *ProviderAddressRevision {
	return &ProviderAddressRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(a.UpdatedByID, a.CreatedByID),
		},
		ProviderAddressID: a.ID,
		ProviderID:        a.ProviderID,
		Line1:             a.Line1,
		Line2:             a.Line2,
		Line3:             a.Line3,
		Town:              a.Town,
		County:            a.County,
		Postcode:          a.Postcode,
		Latitude:          a.Latitude,
		Longitude:         a.Longitude,
		DeletedAt:         a.DeletedAt,
		DeletedByID:       a.DeletedByID,
	}
}

// ProviderAddressRevision is stored in provider_address_revisions.
type ProviderAddressRevision struct {
	RevisionMeta
	ProviderAddressID uuid.UUID  `json:"provider_address_id"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	Line1             string     `json:"line1"`
	Line2             *string    `json:"line2,omitempty"`
	Line3             *string    `json:"line3,omitempty"`
	Town              string     `json:"town"`
	County            *string    `json:"county,omitempty"`
	Postcode          string     `json:"postcode"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	DeletedByID       *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderAddressRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderAddressRevision) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":   r.ProviderID,
		"line1":         r.Line1,
		"line2":         revisions.Deref(r.Line2),
		"line3":         revisions.Deref(r.Line3),
		"town":          r.Town,
		"county":        revisions.Deref(r.County),
		"postcode":      r.Postcode,
		"latitude":      revisions.Deref(r.Latitude),
		"longitude":     revisions.Deref(r.Longitude),
		"deleted_at":    revisions.Deref(r.DeletedAt),
		"deleted_by_id": revisions.Deref(r.DeletedByID),
	}
}
