package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trainhub/register-engine/pkg/revisions"
)

// AcademicYear is a named academic year the register scopes partnerships and
// provider participation to, e.g. "2025 to 2026".
type AcademicYear struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	StartsOn    time.Time  `json:"starts_on"`
	EndsOn      time.Time  `json:"ends_on"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedByID *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (y *AcademicYear) TrackedValues() map[string]any {
	return map[string]any{
		"name":          y.Name,
		"code":          y.Code,
		"starts_on":     y.StartsOn,
		"ends_on":       y.EndsOn,
		"deleted_at":    revisions.Deref(y.DeletedAt),
		"deleted_by_id": revisions.Deref(y.DeletedByID),
	}
}

// Snapshot copies the academic year's tracked fields into a new revision.
func (y *AcademicYear) Snapshot(number int, at time.Time) *AcademicYearRevision {
	return &AcademicYearRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(y.UpdatedByID, y.CreatedByID),
		},
		AcademicYearID: y.ID,
		Name:           y.Name,
		Code:           y.Code,
		StartsOn:       y.StartsOn,
		EndsOn:         y.EndsOn,
		DeletedAt:      y.DeletedAt,
		DeletedByID:    y.DeletedByID,
	}
}

// AcademicYearRevision is stored in academic_year_revisions.
type AcademicYearRevision struct {
	RevisionMeta
	AcademicYearID uuid.UUID  `json:"academic_year_id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	StartsOn       time.Time  `json:"starts_on"`
	EndsOn         time.Time  `json:"ends_on"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedByID    *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *AcademicYearRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *AcademicYearRevision) TrackedValues() map[string]any {
	return map[string]any{
		"name":          r.Name,
		"code":          r.Code,
		"starts_on":     r.StartsOn,
		"ends_on":       r.EndsOn,
		"deleted_at":    revisions.Deref(r.DeletedAt),
		"deleted_by_id": revisions.Deref(r.DeletedByID),
	}
}

// ProviderAcademicYear marks a provider as onboarded for an academic year.
type ProviderAcademicYear struct {
	ID             uuid.UUID  `json:"id"`
	ProviderID     uuid.UUID  `json:"provider_id"`
	AcademicYearID uuid.UUID  `json:"academic_year_id"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedByID    *uuid.UUID `json:"created_by_id,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
	UpdatedByID    *uuid.UUID `json:"updated_by_id,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedByID    *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (l *ProviderAcademicYear) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":      l.ProviderID,
		"academic_year_id": l.AcademicYearID,
		"deleted_at":       revisions.Deref(l.DeletedAt),
		"deleted_by_id":    revisions.Deref(l.DeletedByID),
	}
}

// Snapshot copies the link's tracked fields into a new revision.
func (l *ProviderAcademicYear) Snapshot(number int, at time.Time) *ProviderAcademicYearRevision {
	return &ProviderAcademicYearRevision{
		RevisionMeta: RevisionMeta{
			ID:             uuid.New(),
			RevisionNumber: number,
			RevisionAt:     at,
			RevisionByID:   revisions.Actor(l.UpdatedByID, l.CreatedByID),
		},
		ProviderAcademicYearID: l.ID,
		ProviderID:             l.ProviderID,
		AcademicYearID:         l.AcademicYearID,
		DeletedAt:              l.DeletedAt,
		DeletedByID:            l.DeletedByID,
	}
}

// ProviderAcademicYearRevision is stored in provider_academic_year_revisions.
type ProviderAcademicYearRevision struct {
	RevisionMeta
	ProviderAcademicYearID uuid.UUID  `json:"provider_academic_year_id"`
	ProviderID             uuid.UUID  `json:"provider_id"`
	AcademicYearID         uuid.UUID  `json:"academic_year_id"`
	DeletedAt              *time.Time `json:"deleted_at,omitempty"`
	DeletedByID            *uuid.UUID `json:"deleted_by_id,omitempty"`
}

func (r *ProviderAcademicYearRevision) Meta() *RevisionMeta { return &r.RevisionMeta }

func (r *ProviderAcademicYearRevision) TrackedValues() map[string]any {
	return map[string]any{
		"provider_id":      r.ProviderID,
		"academic_year_id": r.AcademicYearID,
		"deleted_at":       revisions.Deref(r.DeletedAt),
		"deleted_by_id":    revisions.Deref(r.DeletedByID),
	}
}
