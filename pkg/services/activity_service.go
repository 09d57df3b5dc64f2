package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
)

// DefaultActivityPageSize is used when a caller does not supply a limit.
const DefaultActivityPageSize = 50

// RevisionRepos bundles the revision repositories the activity reader
// resolves payloads through, one per revision table.
type RevisionRepos struct {
	Provider                 repositories.ProviderRevisionRepository
	Accreditation            repositories.AccreditationRevisionRepository
	Address                  repositories.AddressRevisionRepository
	Contact                  repositories.ContactRevisionRepository
	Partnership              repositories.PartnershipRevisionRepository
	PartnershipYear          repositories.PartnershipYearRevisionRepository
	AccreditationPartnership repositories.AccreditationPartnershipRevisionRepository
	ProviderYear             repositories.ProviderYearRevisionRepository
	AcademicYear             repositories.AcademicYearRevisionRepository
	User                     repositories.UserRevisionRepository
	APIToken                 repositories.APITokenRevisionRepository
}

// ActivityService renders the activity feed: the global listing, the
// provider-scoped fan-out across every revision table that relates to a
// provider, the user-scoped listing, and single-entity history.
type ActivityService interface {
	List(ctx context.Context, limit, offset int) ([]*models.ActivitySummary, int, error)
	ListForProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*models.ActivitySummary, int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivitySummary, int, error)
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.ActivitySummary, error)

	// LatestRevision resolves the newest revision recorded for an entity
	// through the source registry, regardless of its type.
	LatestRevision(ctx context.Context, entityType string, entityID uuid.UUID) (models.RevisionRecord, error)
}

type activityService struct {
	tx           database.TxRunner
	activityRepo repositories.ActivityLogRepository
	providerRepo repositories.ProviderRepository
	revs         RevisionRepos
	logger       *zap.Logger
}

func NewActivityService(
	tx database.TxRunner,
	activityRepo repositories.ActivityLogRepository,
	providerRepo repositories.ProviderRepository,
	revs RevisionRepos,
	logger *zap.Logger,
) ActivityService {
	return &activityService{
		tx:           tx,
		activityRepo: activityRepo,
		providerRepo: providerRepo,
		revs:         revs,
		logger:       logger.Named("activity-service"),
	}
}

var _ ActivityService = (*activityService)(nil)

// revisionSource describes one revision table to the reader: how to batch-load
// its payloads and, when its rows relate to a provider, how to scope a query
// to one provider.
type revisionSource struct {
	scope   *repositories.ProviderScope
	resolve func(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]models.RevisionRecord, error)
}

// Link revision tables reach their providers through the partnership row.
const (
	partnershipProviderJoin = `JOIN provider_partnerships pp ON pp.id = r.provider_partnership_id`
	partnershipProviderCond = `(pp.training_provider_id = $1 OR pp.accredited_provider_id = $1)`
)

func (s *activityService) sources() map[string]revisionSource {
	return map[string]revisionSource{
		models.TableProviderRevisions: {
			scope:   &repositories.ProviderScope{Table: models.TableProviderRevisions, Cond: `r.provider_id = $1`},
			resolve: resolveRevisions(s.revs.Provider.GetByIDs),
		},
		models.TableProviderAccreditationRevisions: {
			scope:   &repositories.ProviderScope{Table: models.TableProviderAccreditationRevisions, Cond: `r.provider_id = $1`},
			resolve: resolveRevisions(s.revs.Accreditation.GetByIDs),
		},
		models.TableProviderAddressRevisions: {
			scope:   &repositories.ProviderScope{Table: models.TableProviderAddressRevisions, Cond: `r.provider_id = $1`},
			resolve: resolveRevisions(s.revs.Address.GetByIDs),
		},
		models.TableProviderContactRevisions: {
			scope:   &repositories.ProviderScope{Table: models.TableProviderContactRevisions, Cond: `r.provider_id = $1`},
			resolve: resolveRevisions(s.revs.Contact.GetByIDs),
		},
		models.TableProviderPartnershipRevisions: {
			scope: &repositories.ProviderScope{
				Table: models.TableProviderPartnershipRevisions,
				Cond:  `(r.training_provider_id = $1 OR r.accredited_provider_id = $1)`,
			},
			resolve: resolveRevisions(s.revs.Partnership.GetByIDs),
		},
		models.TablePartnershipAcademicYearRevisions: {
			scope: &repositories.ProviderScope{
				Table: models.TablePartnershipAcademicYearRevisions,
				Join:  partnershipProviderJoin,
				Cond:  partnershipProviderCond,
			},
			resolve: resolveRevisions(s.revs.PartnershipYear.GetByIDs),
		},
		models.TableAccreditationPartnershipRevisions: {
			scope: &repositories.ProviderScope{
				Table: models.TableAccreditationPartnershipRevisions,
				Join:  partnershipProviderJoin,
				Cond:  partnershipProviderCond,
			},
			resolve: resolveRevisions(s.revs.AccreditationPartnership.GetByIDs),
		},
		models.TableProviderAcademicYearRevisions: {
			scope:   &repositories.ProviderScope{Table: models.TableProviderAcademicYearRevisions, Cond: `r.provider_id = $1`},
			resolve: resolveRevisions(s.revs.ProviderYear.GetByIDs),
		},
		models.TableAcademicYearRevisions: {
			resolve: resolveRevisions(s.revs.AcademicYear.GetByIDs),
		},
		models.TableUserRevisions: {
			resolve: resolveRevisions(s.revs.User.GetByIDs),
		},
		models.TableAPITokenRevisions: {
			resolve: resolveRevisions(s.revs.APIToken.GetByIDs),
		},
	}
}

// resolveRevisions adapts a typed GetByIDs to the reader's untyped map.
func resolveRevisions[T any, P interface {
	*T
	models.RevisionRecord
}](fetch func(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]P, error)) func(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]models.RevisionRecord, error) {
	return func(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID]models.RevisionRecord, error) {
		typed, err := fetch(ctx, q, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[uuid.UUID]models.RevisionRecord, len(typed))
		for id, rev := range typed {
			out[id] = rev
		}
		return out, nil
	}
}

func (s *activityService) List(ctx context.Context, limit, offset int) ([]*models.ActivitySummary, int, error) {
	limit, offset = normalisePage(limit, offset)

	var (
		summaries []*models.ActivitySummary
		total     int
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		entries, err := s.activityRepo.List(ctx, q, limit, offset)
		if err != nil {
			return err
		}
		total, err = s.activityRepo.Count(ctx, q)
		if err != nil {
			return err
		}
		summaries = s.summarise(ctx, q, entries)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// ListForProvider aggregates activity across every revision table with a path
// back to the provider. The tables share no schema, so each is queried
// independently and the results are merged and paginated in memory.
func (s *activityService) ListForProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*models.ActivitySummary, int, error) {
	limit, offset = normalisePage(limit, offset)

	var (
		summaries []*models.ActivitySummary
		total     int
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var merged []*models.ActivityLogEntry
		for table, src := range s.sources() {
			if src.scope == nil {
				continue
			}
			entries, err := s.activityRepo.ListForProviderScope(ctx, q, *src.scope, providerID)
			if err != nil {
				return fmt.Errorf("failed to read %s activity: %w", table, err)
			}
			merged = append(merged, entries...)
			count, err := s.activityRepo.CountForProviderScope(ctx, q, *src.scope, providerID)
			if err != nil {
				return fmt.Errorf("failed to count %s activity: %w", table, err)
			}
			total += count
		}

		sortEntries(merged)
		summaries = s.summarise(ctx, q, pageOf(merged, limit, offset))
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (s *activityService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ActivitySummary, int, error) {
	limit, offset = normalisePage(limit, offset)

	var (
		summaries []*models.ActivitySummary
		total     int
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		entries, err := s.activityRepo.ListByActor(ctx, q, userID, limit, offset)
		if err != nil {
			return err
		}
		total, err = s.activityRepo.CountByActor(ctx, q, userID)
		if err != nil {
			return err
		}
		summaries = s.summarise(ctx, q, entries)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (s *activityService) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.ActivitySummary, error) {
	var summaries []*models.ActivitySummary
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		entries, err := s.activityRepo.ListForEntity(ctx, q, entityType, entityID)
		if err != nil {
			return err
		}
		summaries = s.summarise(ctx, q, entries)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *activityService) LatestRevision(ctx context.Context, entityType string, entityID uuid.UUID) (models.RevisionRecord, error) {
	var rec models.RevisionRecord
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		entries, err := s.activityRepo.ListForEntity(ctx, q, entityType, entityID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return apperrors.ErrNotFound
		}

		head := entries[0]
		src, ok := s.sources()[head.RevisionTable]
		if !ok {
			return fmt.Errorf("%w: no revision source for table %s", apperrors.ErrNotFound, head.RevisionTable)
		}
		resolved, err := src.resolve(ctx, q, []uuid.UUID{head.RevisionID})
		if err != nil {
			return err
		}
		rec, ok = resolved[head.RevisionID]
		if !ok || rec == nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func normalisePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultActivityPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func sortEntries(entries []*models.ActivityLogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ChangedAt.After(entries[j].ChangedAt)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}

func pageOf(entries []*models.ActivityLogEntry, limit, offset int) []*models.ActivityLogEntry {
	if offset >= len(entries) {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

// summarise turns raw activity rows into display summaries. Payloads are
// batch-loaded per revision table; anything that fails degrades to a stub for
// the affected rows rather than failing the listing.
func (s *activityService) summarise(ctx context.Context, q database.Querier, entries []*models.ActivityLogEntry) []*models.ActivitySummary {
	sources := s.sources()

	idsByTable := make(map[string][]uuid.UUID)
	for _, e := range entries {
		if _, known := sources[e.RevisionTable]; known {
			idsByTable[e.RevisionTable] = append(idsByTable[e.RevisionTable], e.RevisionID)
		}
	}

	payloads := make(map[string]map[uuid.UUID]models.RevisionRecord, len(idsByTable))
	for table, ids := range idsByTable {
		resolved, err := sources[table].resolve(ctx, q, ids)
		if err != nil {
			s.logger.Warn("Failed to load revision payloads",
				zap.String("revision_table", table),
				zap.Error(err))
			continue
		}
		payloads[table] = resolved
	}

	names := s.providerNames(ctx, q, payloads)

	summaries := make([]*models.ActivitySummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, s.summariseEntry(e, sources, payloads[e.RevisionTable], names))
	}
	return summaries
}

// providerNames batch-loads the display names for every provider referenced
// by the resolved payloads. Lookup failures are non-fatal; labels fall back.
func (s *activityService) providerNames(ctx context.Context, q database.Querier, payloads map[string]map[uuid.UUID]models.RevisionRecord) map[uuid.UUID]string {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	for _, revs := range payloads {
		for _, rec := range revs {
			switch rev := rec.(type) {
			case *models.ProviderAccreditationRevision:
				add(rev.ProviderID)
			case *models.ProviderAddressRevision:
				add(rev.ProviderID)
			case *models.ProviderContactRevision:
				add(rev.ProviderID)
			case *models.ProviderAcademicYearRevision:
				add(rev.ProviderID)
			case *models.ProviderPartnershipRevision:
				add(rev.TrainingProviderID)
				add(rev.AccreditedProviderID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	names, err := s.providerRepo.NamesByIDs(ctx, q, ids)
	if err != nil {
		s.logger.Warn("Failed to load provider names for activity labels", zap.Error(err))
		return nil
	}
	return names
}

// Stub labels used when a row cannot be fully rendered.
const (
	labelUnknownRevision     = "Unknown revision"
	labelRevisionUnavailable = "Revision details unavailable"
	labelRevisionError       = "Error loading revision"
)

func (s *activityService) summariseEntry(
	e *models.ActivityLogEntry,
	sources map[string]revisionSource,
	payloads map[uuid.UUID]models.RevisionRecord,
	names map[uuid.UUID]string,
) (summary *models.ActivitySummary) {
	base := &models.ActivitySummary{
		Action:         e.Action,
		Activity:       activityText(e.EntityType, e.Action),
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		RevisionNumber: e.RevisionNumber,
		ChangedByID:    e.ChangedByID,
		ChangedAt:      e.ChangedAt,
	}

	// One malformed row must never take the whole feed down.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Failed to summarise activity row",
				zap.String("revision_table", e.RevisionTable),
				zap.String("revision_id", e.RevisionID.String()),
				zap.Any("panic", r))
			summary = &models.ActivitySummary{
				Action:         e.Action,
				Activity:       activityText(e.EntityType, e.Action),
				Label:          labelRevisionError,
				EntityType:     e.EntityType,
				EntityID:       e.EntityID,
				RevisionNumber: e.RevisionNumber,
				ChangedByID:    e.ChangedByID,
				ChangedAt:      e.ChangedAt,
			}
		}
	}()

	if _, known := sources[e.RevisionTable]; !known {
		base.Label = labelUnknownRevision
		return base
	}
	rec, ok := payloads[e.RevisionID]
	if !ok || rec == nil {
		base.Label = labelRevisionUnavailable
		return base
	}

	switch rev := rec.(type) {
	case *models.ProviderRevision:
		base.Label = rev.OperatingName
		base.Href = "/providers/" + rev.ProviderID.String()
		base.Fields = fieldList(
			field("type", rev.Type),
			field("operating_name", rev.OperatingName),
			fieldPtr("legal_name", rev.LegalName),
			fieldPtr("ukprn", rev.UKPRN),
			fieldPtr("urn", rev.URN),
			fieldPtr("code", rev.Code),
		)
	case *models.ProviderAccreditationRevision:
		base.Label = nameOr(names, rev.ProviderID, rev.Number)
		base.Href = "/providers/" + rev.ProviderID.String()
		base.Fields = fieldList(
			field("number", rev.Number),
			field("starts_on", formatDate(rev.StartsOn)),
			fieldPtrDate("ends_on", rev.EndsOn),
		)
	case *models.ProviderAddressRevision:
		base.Label = nameOr(names, rev.ProviderID, rev.Line1)
		base.Href = "/providers/" + rev.ProviderID.String()
		base.Fields = fieldList(
			field("line1", rev.Line1),
			fieldPtr("line2", rev.Line2),
			fieldPtr("line3", rev.Line3),
			field("town", rev.Town),
			fieldPtr("county", rev.County),
			field("postcode", rev.Postcode),
		)
	case *models.ProviderContactRevision:
		base.Label = nameOr(names, rev.ProviderID, rev.FirstName+" "+rev.LastName)
		base.Href = "/providers/" + rev.ProviderID.String()
		base.Fields = fieldList(
			field("first_name", rev.FirstName),
			field("last_name", rev.LastName),
			field("email", rev.Email),
			fieldPtr("telephone", rev.Telephone),
		)
	case *models.ProviderPartnershipRevision:
		training := nameOr(names, rev.TrainingProviderID, "Training provider")
		accredited := nameOr(names, rev.AccreditedProviderID, "Accredited provider")
		base.Label = training + " and " + accredited
		base.Href = "/providers/" + rev.TrainingProviderID.String()
		base.Fields = fieldList(
			field("training_provider", training),
			field("accredited_provider", accredited),
		)
	case *models.ProviderPartnershipAcademicYearRevision:
		base.Label = "Partnership academic year"
		base.Fields = fieldList(
			field("partnership_id", rev.ProviderPartnershipID.String()),
			field("academic_year_id", rev.AcademicYearID.String()),
		)
	case *models.ProviderAccreditationPartnershipRevision:
		base.Label = "Partnership accreditation"
		base.Fields = fieldList(
			field("partnership_id", rev.ProviderPartnershipID.String()),
			field("accreditation_id", rev.ProviderAccreditationID.String()),
		)
	case *models.ProviderAcademicYearRevision:
		base.Label = nameOr(names, rev.ProviderID, "Provider academic year")
		base.Href = "/providers/" + rev.ProviderID.String()
		base.Fields = fieldList(
			field("academic_year_id", rev.AcademicYearID.String()),
		)
	case *models.AcademicYearRevision:
		base.Label = rev.Name
		base.Href = "/academic-years/" + rev.AcademicYearID.String()
		base.Fields = fieldList(
			field("name", rev.Name),
			field("code", rev.Code),
			field("starts_on", formatDate(rev.StartsOn)),
			field("ends_on", formatDate(rev.EndsOn)),
		)
	case *models.UserRevision:
		base.Label = rev.FirstName + " " + rev.LastName
		base.Href = "/users/" + rev.UserID.String()
		base.Fields = fieldList(
			field("first_name", rev.FirstName),
			field("last_name", rev.LastName),
			field("email", rev.Email),
		)
	case *models.APIClientTokenRevision:
		base.Label = rev.Description
		base.Href = "/api-tokens"
		base.Fields = fieldList(
			field("description", rev.Description),
			fieldPtrDate("expires_at", rev.ExpiresAt),
			fieldPtrDate("revoked_at", rev.RevokedAt),
		)
	default:
		base.Label = labelRevisionUnavailable
	}
	return base
}

// Display titles per entity type, used in "<Title> <action>d" activity text.
var entityTitles = map[string]string{
	models.EntityTypeProvider:                 "Provider",
	models.EntityTypeProviderAccreditation:    "Accreditation",
	models.EntityTypeProviderAddress:          "Address",
	models.EntityTypeProviderContact:          "Contact",
	models.EntityTypeProviderPartnership:      "Partnership",
	models.EntityTypePartnershipAcademicYear:  "Partnership academic year",
	models.EntityTypeAccreditationPartnership: "Partnership accreditation",
	models.EntityTypeProviderAcademicYear:     "Provider academic year",
	models.EntityTypeAcademicYear:             "Academic year",
	models.EntityTypeUser:                     "User",
	models.EntityTypeAPIToken:                 "API token",
}

func activityText(entityType, action string) string {
	title, ok := entityTitles[entityType]
	if !ok {
		title = "Record"
	}
	return title + " " + action + "d"
}

func nameOr(names map[uuid.UUID]string, id uuid.UUID, fallback string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fallback
}

func field(key, value string) models.ActivityField {
	return models.ActivityField{Key: key, Value: value}
}

func fieldPtr(key string, value *string) models.ActivityField {
	if value == nil {
		return models.ActivityField{Key: key}
	}
	return models.ActivityField{Key: key, Value: *value}
}

func fieldPtrDate(key string, value *time.Time) models.ActivityField {
	if value == nil {
		return models.ActivityField{Key: key}
	}
	return models.ActivityField{Key: key, Value: formatDate(*value)}
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// fieldList drops fields whose value is empty, keeping summaries compact.
func fieldList(fields ...models.ActivityField) []models.ActivityField {
	out := make([]models.ActivityField, 0, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}
