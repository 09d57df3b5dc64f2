package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// ProviderPartnership links a training provider to the accredited provider it
// trains under. Which academic years the partnership operates in is recorded
// separately through ProviderPartnershipAcademicYear links.
type ProviderPartnership struct {
	ID                   uuid.UUID  `json:"id"`
	TrainingProviderID   uuid.UUID  `json:"training_provider_id"`
	AccreditedProviderID uuid.UUID  `json:"accredited_provider_id"`
	CreatedAt            time.Time  `json:"created_at"`
	CreatedByID          *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt            time.Time  `json:"updated_at"`
	UpdatedByID          *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
	DeletedByID          *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (p *ProviderPartnership) TrackedValues() map[string]any {
	return map[string]any{
		"training_provider_id":   p.TrainingProviderID,
		"accredited_provider_id": p.AccreditedProviderID,
		"deleted_at":             revisions.Deref(p.DeletedAt),
		"deleted_by_id":          revisions.Deref(p.DeletedByID),
	}
}

// Snapshot copies the partnership's tracked fields into a new revision.
func (p *ProviderPartnership) Snapshot(number int, at time.Time) *ProviderPartnershipRevision {
	return &ProviderPartnershipRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(p.UpdatedByID, p.CreatedByID),
		},
		ProviderPartnershipID: p.ID,
		TrainingProviderID:    p.TrainingProviderID,
		AccreditedProviderID:  p.AccreditedProviderID,
		DeletedAt:             p.DeletedAt,
		DeletedByID:           p.DeletedByID,
	}
}

// ProviderPartnershipRevision is stored in provider_partnership_revisions.
type ProviderPartnershipRevision struct {
	RevisionMeta
	ProviderPartnershipID uuid.UUID  `json:"provider_partnership_id"`
	TrainingProviderID    uuid.UUID  `json:"training_provider_id"`
	AccreditedProviderID  uuid.UUID  `json:"accredited_provider_id"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
	DeletedByID           *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderPartnershipRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderPartnershipRevision) TrackedValues() map[string]any {
	return map[string]any{
		"training_provider_id":   r.TrainingProviderID,
		"accredited_provider_id": r.AccreditedProviderID,
		"deleted_at":             revisions.Deref(r.DeletedAt),
		"deleted_by_id":          revisions.Deref(r.DeletedByID),
	}
}

// ProviderPartnershipAcademicYear marks a partnership as operating in an
// academic year. Links are soft-deleted and re-added independently of the
// partnership itself, so they carry their own revision history.
type ProviderPartnershipAcademicYear struct {
	ID                    uuid.UUID  `json:"id"`
	ProviderPartnershipID uuid.UUID  `json:"provider_partnership_id"`
	AcademicYearID        uuid.UUID  `json:"academic_year_id"`
	CreatedAt             time.Time  `json:"created_at"`
	CreatedByID           *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
	UpdatedByID           *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
	DeletedByID           *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (l *ProviderPartnershipAcademicYear) TrackedValues() map[string]any {
	return map[string]any{
		"provider_partnership_id": l.ProviderPartnershipID,
		"academic_year_id":        l.AcademicYearID,
		"deleted_at":              revisions.Deref(l.DeletedAt),
		"deleted_by_id":           revisions.Deref(l.DeletedByID),
	}
}

// Snapshot copies the link's tracked fields into a new revision.
func (l *ProviderPartnershipAcademicYear) Snapshot(number int, at time.Time) *ProviderPartnershipAcademicYearRevision {
	return &ProviderPartnershipAcademicYearRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(l.UpdatedByID, l.CreatedByID),
		},
		ProviderPartnershipAcademicYearID: l.ID,
		ProviderPartnershipID:             l.ProviderPartnershipID,
		AcademicYearID:                    l.AcademicYearID,
		DeletedAt:                         l.DeletedAt,
		DeletedByID:                       l.DeletedByID,
	}
}

// ProviderPartnershipAcademicYearRevision is stored in
// provider_partnership_academic_year_revisions.
type ProviderPartnershipAcademicYearRevision struct {
	RevisionMeta
	ProviderPartnershipAcademicYearID uuid.UUID  `json:"provider_partnership_academic_year_id"`
	ProviderPartnershipID             uuid.UUID  `json:"provider_partnership_id"`
	AcademicYearID                    uuid.UUID  `json:"academic_year_id"`
	DeletedAt                         *time.Time `json:"deleted_at,omitempty"`
	DeletedByID                       *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderPartnershipAcademicYearRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderPartnershipAcademicYearRevision) TrackedValues() map[string]any {
	return map[string]any{
		"provider_partnership_id": r.ProviderPartnershipID,
		"academic_year_id":        r.AcademicYearID,
		"deleted_at":              revisions.Deref(r.DeletedAt),
		"deleted_by_id":           revisions.Deref(r.DeletedByID),
	}
}

// ProviderAccreditationPartnership ties a partnership to the accreditation it
// operates under.
type ProviderAccreditationPartnership struct {
	ID                      uuid.UUID  `json:"id"`
	ProviderPartnershipID   uuid.UUID  `json:"provider_partnership_id"`
	ProviderAccreditationID uuid.UUID  `json:"provider_accreditation_id"`
	CreatedAt               time.Time  `json:"created_at"`
	CreatedByID             *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt               time.Time  `json:"updated_at"`
	UpdatedByID             *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt               *time.Time `json:"deleted_at,omitempty"`
	DeletedByID             *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (l *ProviderAccreditationPartnership) TrackedValues() map[string]any {
	return map[string]any{
		"provider_partnership_id":   l.ProviderPartnershipID,
		"provider_accreditation_id": l.ProviderAccreditationID,
		"deleted_at":                revisions.Deref(l.DeletedAt),
		"deleted_by_id":             revisions.Deref(l.DeletedByID),
	}
}

// Snapshot copies the link's tracked fields into a new revision.
func (l *ProviderAccreditationPartnership) Snapshot(number int, at time.Time) *ProviderAccreditationPartnershipRevision {
	return &ProviderAccreditationPartnershipRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(l.UpdatedByID, l.CreatedByID),
		},
		ProviderAccreditationPartnershipID: l.ID,
		ProviderPartnershipID:              l.ProviderPartnershipID,
		ProviderAccreditationID:            l.ProviderAccreditationID,
		DeletedAt:                          l.DeletedAt,
		DeletedByID:                        l.DeletedByID,
	}
}

// ProviderAccreditationPartnershipRevision is stored in
// provider_accreditation_partnership_revisions.
type ProviderAccreditationPartnershipRevision struct {
	RevisionMeta
	ProviderAccreditationPartnershipID uuid.UUID  `json:"provider_accreditation_partnership_id"`
	ProviderPartnershipID              uuid.UUID  `json:"provider_partnership_id"`
	ProviderAccreditationID            uuid.UUID  `json:"provider_accreditation_id"`
	DeletedAt                          *time.Time `json:"deleted_at,omitempty"`
	DeletedByID                        *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderAccreditationPartnershipRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderAccreditationPartnershipRevision) TrackedValues() map[string]any {
	return map[string]any{
		"provider_partnership_id":   r.ProviderPartnershipID,
		"provider_accreditation_id": r.ProviderAccreditationID,
		"deleted_at":                revisions.Deref(r.DeletedAt),
		"deleted_by_id":             revisions.Deref(r.DeletedByID),
	}
}
