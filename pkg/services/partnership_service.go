package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
)

// PartnershipService manages training partnerships between providers,
// including which academic years and accreditations each partnership
// operates under. Links are soft-deleted; re-adding one restores the same
// row so its revision history stays in a single sequence.
type PartnershipService interface {
	Create(ctx context.Context, trainingProviderID, accreditedProviderID uuid.UUID) (*models.ProviderPartnership, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ProviderPartnership, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderPartnership, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddAcademicYear(ctx context.Context, partnershipID, academicYearID uuid.UUID) error
	RemoveAcademicYear(ctx context.Context, partnershipID, academicYearID uuid.UUID) error

	AddAccreditation(ctx context.Context, partnershipID, accreditationID uuid.UUID) error
	RemoveAccreditation(ctx context.Context, partnershipID, accreditationID uuid.UUID) error
}

type partnershipService struct {
	tx              database.TxRunner
	providerRepo    repositories.ProviderRepository
	accredRepo      repositories.AccreditationRepository
	partnershipRepo repositories.PartnershipRepository
	partnershipRev  repositories.PartnershipRevisionRepository
	yearLinkRev     repositories.PartnershipYearRevisionRepository
	accredLinkRev   repositories.AccreditationPartnershipRevisionRepository
	yearRepo        repositories.AcademicYearRepository
	writer          *revisionWriter
	logger          *zap.Logger
}

func NewPartnershipService(
	tx database.TxRunner,
	providerRepo repositories.ProviderRepository,
	accredRepo repositories.AccreditationRepository,
	partnershipRepo repositories.PartnershipRepository,
	partnershipRev repositories.PartnershipRevisionRepository,
	yearLinkRev repositories.PartnershipYearRevisionRepository,
	accredLinkRev repositories.AccreditationPartnershipRevisionRepository,
	yearRepo repositories.AcademicYearRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) PartnershipService {
	return &partnershipService{
		tx:              tx,
		providerRepo:    providerRepo,
		accredRepo:      accredRepo,
		partnershipRepo: partnershipRepo,
		partnershipRev:  partnershipRev,
		yearLinkRev:     yearLinkRev,
		accredLinkRev:   accredLinkRev,
		yearRepo:        yearRepo,
		writer:          writer,
		logger:          logger.Named("partnership-service"),
	}
}

var _ PartnershipService = (*partnershipService)(nil)

func (s *partnershipService) Create(ctx context.Context, trainingProviderID, accreditedProviderID uuid.UUID) (*models.ProviderPartnership, error) {
	if trainingProviderID == accreditedProviderID {
		return nil, apperrors.ErrSelfPartnership
	}

	var partnership *models.ProviderPartnership
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		for _, id := range []uuid.UUID{trainingProviderID, accreditedProviderID} {
			p, err := s.providerRepo.GetByID(ctx, q, id)
			if err != nil {
				return err
			}
			if p.DeletedAt != nil {
				return apperrors.ErrNotFound
			}
			if p.ArchivedAt != nil {
				return apperrors.ErrProviderArchived
			}
		}
		accredited, err := s.providerRepo.GetByID(ctx, q, accreditedProviderID)
		if err != nil {
			return err
		}
		if !accredited.IsAccredited {
			return apperrors.ErrInvalidProvider
		}

		now := time.Now().UTC()
		actor := models.ActorID(ctx)

		existing, err := s.partnershipRepo.GetByProviders(ctx, q, trainingProviderID, accreditedProviderID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			partnership = &models.ProviderPartnership{
				ID:                   uuid.New(),
				TrainingProviderID:   trainingProviderID,
				AccreditedProviderID: accreditedProviderID,
				CreatedAt:            now,
				CreatedByID:          actor,
				UpdatedAt:            now,
				UpdatedByID:          actor,
			}
			if err := s.partnershipRepo.Insert(ctx, q, partnership); err != nil {
				return err
			}
		case existing.DeletedAt == nil:
			return apperrors.ErrConflict
		default:
			existing.DeletedAt = nil
			existing.DeletedByID = nil
			existing.UpdatedAt = now
			existing.UpdatedByID = actor
			if err := s.partnershipRepo.Update(ctx, q, existing); err != nil {
				return err
			}
			partnership = existing
		}

		return s.recordPartnership(ctx, q, partnership)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Partnership created",
		zap.String("partnership_id", partnership.ID.String()),
		zap.String("training_provider_id", trainingProviderID.String()),
		zap.String("accredited_provider_id", accreditedProviderID.String()))
	return partnership, nil
}

func (s *partnershipService) Get(ctx context.Context, id uuid.UUID) (*models.ProviderPartnership, error) {
	var partnership *models.ProviderPartnership
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		partnership, err = s.partnershipRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if partnership.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return partnership, nil
}

func (s *partnershipService) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderPartnership, error) {
	var partnerships []*models.ProviderPartnership
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		partnerships, err = s.partnershipRepo.ListByProvider(ctx, q, providerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return partnerships, nil
}

// Delete soft-deletes the partnership and every live academic-year and
// accreditation link under it, each with its own revision.
func (s *partnershipService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.partnershipRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		partnership, err := s.partnershipRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if partnership.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		actor := models.ActorID(ctx)

		yearLinks, err := s.partnershipRepo.ListAcademicYearLinks(ctx, q, id)
		if err != nil {
			return err
		}
		for _, link := range yearLinks {
			link.DeletedAt = &now
			link.DeletedByID = actor
			link.UpdatedAt = now
			link.UpdatedByID = actor
			if err := s.partnershipRepo.UpdateAcademicYearLink(ctx, q, link); err != nil {
				return err
			}
			if err := s.recordYearLink(ctx, q, link); err != nil {
				return err
			}
		}

		accredLinks, err := s.partnershipRepo.ListAccreditationLinks(ctx, q, id)
		if err != nil {
			return err
		}
		for _, link := range accredLinks {
			link.DeletedAt = &now
			link.DeletedByID = actor
			link.UpdatedAt = now
			link.UpdatedByID = actor
			if err := s.partnershipRepo.UpdateAccreditationLink(ctx, q, link); err != nil {
				return err
			}
			if err := s.recordAccredLink(ctx, q, link); err != nil {
				return err
			}
		}

		partnership.DeletedAt = &now
		partnership.DeletedByID = actor
		partnership.UpdatedAt = now
		partnership.UpdatedByID = actor
		if err := s.partnershipRepo.Update(ctx, q, partnership); err != nil {
			return err
		}
		return s.recordPartnership(ctx, q, partnership)
	})
}

func (s *partnershipService) AddAcademicYear(ctx context.Context, partnershipID, academicYearID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		partnership, err := s.lockLivePartnership(ctx, q, partnershipID)
		if err != nil {
			return err
		}
		year, err := s.yearRepo.GetByID(ctx, q, academicYearID)
		if err != nil {
			return err
		}
		if year.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		actor := models.ActorID(ctx)

		link, err := s.partnershipRepo.FindAcademicYearLink(ctx, q, partnership.ID, academicYearID)
		if err != nil {
			return err
		}
		switch {
		case link == nil:
			link = &models.ProviderPartnershipAcademicYear{
				ID:                    uuid.New(),
				ProviderPartnershipID: partnership.ID,
				AcademicYearID:        academicYearID,
				CreatedAt:             now,
				CreatedByID:           actor,
				UpdatedAt:             now,
				UpdatedByID:           actor,
			}
			if err := s.partnershipRepo.InsertAcademicYearLink(ctx, q, link); err != nil {
				return err
			}
		case link.DeletedAt == nil:
			return nil
		default:
			link.DeletedAt = nil
			link.DeletedByID = nil
			link.UpdatedAt = now
			link.UpdatedByID = actor
			if err := s.partnershipRepo.UpdateAcademicYearLink(ctx, q, link); err != nil {
				return err
			}
		}

		return s.recordYearLink(ctx, q, link)
	})
}

func (s *partnershipService) RemoveAcademicYear(ctx context.Context, partnershipID, academicYearID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.partnershipRepo.Lock(ctx, q, partnershipID); err != nil {
			return err
		}
		link, err := s.partnershipRepo.FindAcademicYearLink(ctx, q, partnershipID, academicYearID)
		if err != nil {
			return err
		}
		if link == nil || link.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		link.DeletedAt = &now
		link.DeletedByID = models.ActorID(ctx)
		link.UpdatedAt = now
		link.UpdatedByID = models.ActorID(ctx)
		if err := s.partnershipRepo.UpdateAcademicYearLink(ctx, q, link); err != nil {
			return err
		}

		return s.recordYearLink(ctx, q, link)
	})
}

func (s *partnershipService) AddAccreditation(ctx context.Context, partnershipID, accreditationID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		partnership, err := s.lockLivePartnership(ctx, q, partnershipID)
		if err != nil {
			return err
		}
		accreditation, err := s.accredRepo.GetByID(ctx, q, accreditationID)
		if err != nil {
			return err
		}
		if accreditation.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		// The accreditation must belong to the accredited side of the
		// partnership.
		if accreditation.ProviderID != partnership.AccreditedProviderID {
			return apperrors.ErrInvalidProvider
		}

		now := time.Now().UTC()
		actor := models.ActorID(ctx)

		link, err := s.partnershipRepo.FindAccreditationLink(ctx, q, partnership.ID, accreditationID)
		if err != nil {
			return err
		}
		switch {
		case link == nil:
			link = &models.ProviderAccreditationPartnership{
				ID:                      uuid.New(),
				ProviderPartnershipID:   partnership.ID,
				ProviderAccreditationID: accreditationID,
				CreatedAt:               now,
				CreatedByID:             actor,
				UpdatedAt:               now,
				UpdatedByID:             actor,
			}
			if err := s.partnershipRepo.InsertAccreditationLink(ctx, q, link); err != nil {
				return err
			}
		case link.DeletedAt == nil:
			return nil
		default:
			link.DeletedAt = nil
			link.DeletedByID = nil
			link.UpdatedAt = now
			link.UpdatedByID = actor
			if err := s.partnershipRepo.UpdateAccreditationLink(ctx, q, link); err != nil {
				return err
			}
		}

		return s.recordAccredLink(ctx, q, link)
	})
}

func (s *partnershipService) RemoveAccreditation(ctx context.Context, partnershipID, accreditationID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.partnershipRepo.Lock(ctx, q, partnershipID); err != nil {
			return err
		}
		link, err := s.partnershipRepo.FindAccreditationLink(ctx, q, partnershipID, accreditationID)
		if err != nil {
			return err
		}
		if link == nil || link.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		link.DeletedAt = &now
		link.DeletedByID = models.ActorID(ctx)
		link.UpdatedAt = now
		link.UpdatedByID = models.ActorID(ctx)
		if err := s.partnershipRepo.UpdateAccreditationLink(ctx, q, link); err != nil {
			return err
		}

		return s.recordAccredLink(ctx, q, link)
	})
}

func (s *partnershipService) lockLivePartnership(ctx context.Context, q database.Querier, id uuid.UUID) (*models.ProviderPartnership, error) {
	if err := s.partnershipRepo.Lock(ctx, q, id); err != nil {
		return nil, err
	}
	partnership, err := s.partnershipRepo.GetByID(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if partnership.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	return partnership, nil
}

func (s *partnershipService) recordPartnership(ctx context.Context, q database.Querier, p *models.ProviderPartnership) error {
	head, err := s.partnershipRev.Latest(ctx, q, p.ID)
	if err != nil {
		return err
	}
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderPartnershipRevisions,
		EntityType: models.EntityTypeProviderPartnership,
		EntityID:   p.ID,
		Values:     p.TrackedValues(),
		DeletedAt:  p.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := p.Snapshot(number, at)
			if err := s.partnershipRev.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}

func (s *partnershipService) recordYearLink(ctx context.Context, q database.Querier, link *models.ProviderPartnershipAcademicYear) error {
	head, err := s.yearLinkRev.Latest(ctx, q, link.ID)
	if err != nil {
		return err
	}
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TablePartnershipAcademicYearRevisions,
		EntityType: models.EntityTypePartnershipAcademicYear,
		EntityID:   link.ID,
		Values:     link.TrackedValues(),
		DeletedAt:  link.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := link.Snapshot(number, at)
			if err := s.yearLinkRev.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}

func (s *partnershipService) recordAccredLink(ctx context.Context, q database.Querier, link *models.ProviderAccreditationPartnership) error {
	head, err := s.accredLinkRev.Latest(ctx, q, link.ID)
	if err != nil {
		return err
	}
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableAccreditationPartnershipRevisions,
		EntityType: models.EntityTypeAccreditationPartnership,
		EntityID:   link.ID,
		Values:     link.TrackedValues(),
		DeletedAt:  link.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := link.Snapshot(number, at)
			if err := s.accredLinkRev.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
