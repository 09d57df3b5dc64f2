package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// Provider types recognised by the register.
const (
	ProviderTypeHEI    = "hei"   // higher education institution
	ProviderTypeSCITT  = "scitt" // school-centred initial teacher training
	ProviderTypeSchool = "school"
)

// Provider is an institution on the register.
type Provider struct {
	ID            uuid.UUID `json:"id"`
	OperatingName string    `json:"operating_name"`
	LegalName     *string   `json:"legal_name,omitempty"`
	Type          string    `json:"type"`
	UKPRN         *string   `json:"ukprn,omitempty"`
	URN           *string   `json:"urn,omitempty"`
	Code          *string   `json:"code,omitempty"`
	Website       *string   `json:"website,omitempty"`
	// IsAccredited is derived from the provider's accreditation rows. It is
	// tracked like any other field, so a flag flip always produces a
	// revision and the latest revision never drifts from the live value.
	IsAccredited bool       `json:"is_accredited"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	ArchivedByID *uuid.UUID `json:"archived_by_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedByID  *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	UpdatedByID  *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeletedByID  *uuid.UUID `json:"deleted_by_id,omitempty"`
}

// TrackedValues returns the provider's tracked fields for change detection.
// Internal bookkeeping columns (created/updated metadata) are deliberately
// absent: changing them alone never produces a revision.
func (p *Provider) TrackedValues() map[string]any {
	return map[string]any{
		"operating_name": p.OperatingName,
		"legal_name":     revisions.Deref(p.LegalName),
		"type":           p.Type,
		"ukprn":          revisions.Deref(p.UKPRN),
		"urn":            revisions.Deref(p.URN),
		"code":           revisions.Deref(p.Code),
		"website":        revisions.Deref(p.Website),
		"is_accredited":  p.IsAccredited,
		"archived_at":    revisions.Deref(p.ArchivedAt),
		"archived_by_id": revisions.Deref(p.ArchivedByID),
		"deleted_at":     revisions.Deref(p.DeletedAt),
		"deleted_by_id":  revisions.Deref(p.DeletedByID),
	}
}

// Snapshot copies the provider's tracked fields into a new revision with the
// given number. The snapshot's actor follows updated-by then created-by.
func (p *Provider) Snapshot(number int, at time.Time) *ProviderRevision {
	return &ProviderRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(p.UpdatedByID, p.CreatedByID),
		},
		ProviderID:    p.ID,
		OperatingName: p.OperatingName,
		LegalName:     p.LegalName,
		Type:          p.Type,
		UKPRN:         p.UKPRN,
		URN:           p.URN,
		Code:          p.Code,
		Website:       p.Website,
		IsAccredited:  p.IsAccredited,
		ArchivedAt:    p.ArchivedAt,
		ArchivedByID:  p.ArchivedByID,
		DeletedAt:     p.DeletedAt,
		DeletedByID:   p.DeletedByID,
	}
}

// ProviderRevision is an immutable snapshot of a provider's tracked fields.
// Stored in provider_revisions.
type ProviderRevision struct {
	RevisionMeta
	ProviderID    uuid.UUID  `json:"provider_id"`
	OperatingName string     `json:"operating_name"`
	LegalName     *string    `json:"legal_name,omitempty"`
	Type          string     `json:"type"`
	UKPRN         *string    `json:"ukprn,omitempty"`
	URN           *string    `json:"urn,omitempty"`
	Code          *string    `json:"code,omitempty"`
	Website       *string    `json:"website,omitempty"`
	IsAccredited  bool       `json:"is_accredited"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	ArchivedByID  *uuid.UUID `json:"archived_by_id,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	DeletedByID   *uuid.UUID `json:"deleted_by_id,omitempty"`
}

// Meta implements RevisionRecord.
func (r *ProviderRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

// TrackedValues implements RevisionRecord.
func (r *ProviderRevision) TrackedValues() map[string]any {
	return map[string]any{
		"operating_name": r.OperatingName,
		"legal_name":     revisions.Deref(r.LegalName),
		"type":           r.Type,
		"ukprn":          revisions.Deref(r.UKPRN),
		"urn":            revisions.Deref(r.URN),
		"code":           revisions.Deref(r.Code),
		"website":        revisions.Deref(r.Website),
		"is_accredited":  r.IsAccredited,
		"archived_at":    revisions.Deref(r.ArchivedAt),
		"archived_by_id": revisions.Deref(r.ArchivedByID),
		"deleted_at":     revisions.Deref(r.DeletedAt),
		"deleted_by_id":  revisions.Deref(r.DeletedByID),
	}
}
