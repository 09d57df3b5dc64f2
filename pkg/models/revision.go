package models

import (
	"time"

	"github.com/google/uuid"
)

// Logical entity type strings, denormalised onto activity log rows.
const (
	EntityTypeProvider                 = "provider"
	EntityTypeProviderAccreditation    = "provider_accreditation"
	EntityTypeProviderAddress          = "provider_address"
	EntityTypeProviderContact          = "provider_contact"
	EntityTypeProviderPartnership      = "provider_partnership"
	EntityTypePartnershipAcademicYear  = "provider_partnership_academic_year"
	EntityTypeAccreditationPartnership = "provider_accreditation_partnership"
	EntityTypeProviderAcademicYear     = "provider_academic_year"
	EntityTypeAcademicYear             = "academic_year"
	EntityTypeUser                     = "user"
	EntityTypeAPIToken                 = "api_client_token"
)

// Revision table names. These are fixed constants, never derived at runtime,
// so the activity log's revision_table column can be trusted for dispatch.
const (
	TableProviderRevisions                 = "provider_revisions"
	TableProviderAccreditationRevisions    = "provider_accreditation_revisions"
	TableProviderAddressRevisions          = "provider_address_revisions"
	TableProviderContactRevisions          = "provider_contact_revisions"
	TableProviderPartnershipRevisions      = "provider_partnership_revisions"
	TablePartnershipAcademicYearRevisions  = "provider_partnership_academic_year_revisions"
	TableAccreditationPartnershipRevisions = "provider_accreditation_partnership_revisions"
	TableProviderAcademicYearRevisions     = "provider_academic_year_revisions"
	TableAcademicYearRevisions             = "academic_year_revisions"
	TableUserRevisions                     = "user_revisions"
	TableAPITokenRevisions                 = "api_client_token_revisions"
)

// RevisionMeta carries the bookkeeping columns shared by every revision table.
// Embedded in each concrete revision type.
type RevisionMeta struct {
	ID             uuid.UUID  `json:"id"`
	RevisionNumber int        `json:"revision_number"`
	RevisionAt     time.Time  `json:"revision_at"`
	RevisionByID   *uuid.UUID `json:"revision_by_id,omitempty"`
}

// RevisionRecord is implemented by every concrete revision type. It lets the
// revision writer and the activity summariser handle revisions of any entity
// type without reflection.
type RevisionRecord interface {
	// Meta returns the revision's bookkeeping columns.
	Meta() *RevisionMeta
	// TrackedValues returns the snapshot's tracked fields keyed by column
	// name. Pointer fields are dereferenced so values compare by equality;
	// absent optional fields appear as nil.
	TrackedValues() map[string]any
}
