package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
	"github.com/trainhub/register-engine/pkg/revisions"
)

// ProviderInput carries the writable provider fields for create and update.
type ProviderInput struct {
	OperatingName string  `json:"operating_name"`
	LegalName     *string `json:"legal_name"`
	Type          string  `json:"type"`
	UKPRN         *string `json:"ukprn"`
	URN           *string `json:"urn"`
	Code          *string `json:"code"`
	Website       *string `json:"website"`
}

// ProviderService manages providers, their archive/delete lifecycle, and
// their academic-year onboarding.
type ProviderService interface {
	Create(ctx context.Context, input ProviderInput) (*models.Provider, error)
	Update(ctx context.Context, id uuid.UUID, input ProviderInput) (*models.Provider, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	List(ctx context.Context, limit, offset int) ([]*models.Provider, error)
	Archive(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	Unarchive(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddAcademicYear(ctx context.Context, providerID, academicYearID uuid.UUID) error
	RemoveAcademicYear(ctx context.Context, providerID, academicYearID uuid.UUID) error

	// SetAccreditationFlag flips the provider's derived is_accredited flag
	// inside the caller's transaction, writing a revision and activity log
	// entry. It reports whether the stored value actually changed.
	SetAccreditationFlag(ctx context.Context, q database.Querier, providerID uuid.UUID, accredited bool) (bool, error)
}

type providerService struct {
	tx              database.TxRunner
	providerRepo    repositories.ProviderRepository
	providerRevRepo repositories.ProviderRevisionRepository
	yearRepo        repositories.AcademicYearRepository
	yearLinkRevRepo repositories.ProviderYearRevisionRepository
	writer          *revisionWriter
	logger          *zap.Logger
}

func NewProviderService(
	tx database.TxRunner,
	providerRepo repositories.ProviderRepository,
	providerRevRepo repositories.ProviderRevisionRepository,
	yearRepo repositories.AcademicYearRepository,
	yearLinkRevRepo repositories.ProviderYearRevisionRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) ProviderService {
	return &providerService{
		tx:              tx,
		providerRepo:    providerRepo,
		providerRevRepo: providerRevRepo,
		yearRepo:        yearRepo,
		yearLinkRevRepo: yearLinkRevRepo,
		writer:          writer,
		logger:          logger.Named("provider-service"),
	}
}

var _ ProviderService = (*providerService)(nil)

func validProviderType(t string) bool {
	switch t {
	case models.ProviderTypeHEI, models.ProviderTypeSCITT, models.ProviderTypeSchool:
		return true
	}
	return false
}

func (s *providerService) Create(ctx context.Context, input ProviderInput) (*models.Provider, error) {
	if input.OperatingName == "" {
		return nil, fmt.Errorf("%w: operating name is required", apperrors.ErrValidation)
	}
	if !validProviderType(input.Type) {
		return nil, fmt.Errorf("%w: unknown provider type %q", apperrors.ErrValidation, input.Type)
	}

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	p := &models.Provider{
		ID:            uuid.New(),
		OperatingName: input.OperatingName,
		LegalName:     input.LegalName,
		Type:          input.Type,
		UKPRN:         input.UKPRN,
		URN:           input.URN,
		Code:          input.Code,
		Website:       input.Website,
		CreatedAt:     now,
		CreatedByID:   actor,
		UpdatedAt:     now,
		UpdatedByID:   actor,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.providerRepo.Insert(ctx, q, p); err != nil {
			return err
		}
		return s.recordProvider(ctx, q, p, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Provider created",
		zap.String("provider_id", p.ID.String()),
		zap.String("operating_name", p.OperatingName))
	return p, nil
}

func (s *providerService) Update(ctx context.Context, id uuid.UUID, input ProviderInput) (*models.Provider, error) {
	if input.OperatingName == "" {
		return nil, fmt.Errorf("%w: operating name is required", apperrors.ErrValidation)
	}
	if !validProviderType(input.Type) {
		return nil, fmt.Errorf("%w: unknown provider type %q", apperrors.ErrValidation, input.Type)
	}

	var p *models.Provider
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.providerRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		p, err = s.providerRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		p.OperatingName = input.OperatingName
		p.LegalName = input.LegalName
		p.Type = input.Type
		p.UKPRN = input.UKPRN
		p.URN = input.URN
		p.Code = input.Code
		p.Website = input.Website

		return s.saveProvider(ctx, q, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *providerService) Get(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var p *models.Provider
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		p, err = s.providerRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *providerService) List(ctx context.Context, limit, offset int) ([]*models.Provider, error) {
	var providers []*models.Provider
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		providers, err = s.providerRepo.List(ctx, q, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *providerService) Archive(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return s.setArchived(ctx, id, true)
}

func (s *providerService) Unarchive(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return s.setArchived(ctx, id, false)
}

func (s *providerService) setArchived(ctx context.Context, id uuid.UUID, archived bool) (*models.Provider, error) {
	var p *models.Provider
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.providerRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		p, err = s.providerRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		if archived {
			now := time.Now().UTC()
			p.ArchivedAt = &now
			p.ArchivedByID = models.ActorID(ctx)
		} else {
			p.ArchivedAt = nil
			p.ArchivedByID = nil
		}

		return s.saveProvider(ctx, q, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *providerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.providerRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		p, err := s.providerRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		p.DeletedAt = &now
		p.DeletedByID = models.ActorID(ctx)

		return s.saveProvider(ctx, q, p)
	})
}

func (s *providerService) SetAccreditationFlag(ctx context.Context, q database.Querier, providerID uuid.UUID, accredited bool) (bool, error) {
	if err := s.providerRepo.Lock(ctx, q, providerID); err != nil {
		return false, err
	}
	p, err := s.providerRepo.GetByID(ctx, q, providerID)
	if err != nil {
		return false, err
	}
	if p.DeletedAt != nil || p.IsAccredited == accredited {
		return false, nil
	}

	p.IsAccredited = accredited
	if err := s.saveProvider(ctx, q, p); err != nil {
		return false, err
	}
	return true, nil
}

func (s *providerService) AddAcademicYear(ctx context.Context, providerID, academicYearID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.providerRepo.Lock(ctx, q, providerID); err != nil {
			return err
		}
		p, err := s.providerRepo.GetByID(ctx, q, providerID)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		if p.ArchivedAt != nil {
			return apperrors.ErrProviderArchived
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

		link, err := s.yearRepo.FindProviderLink(ctx, q, providerID, academicYearID)
		if err != nil {
			return err
		}
		switch {
		case link == nil:
			link = &models.ProviderAcademicYear{
				ID:             uuid.New(),
				ProviderID:     providerID,
				AcademicYearID: academicYearID,
				CreatedAt:      now,
				CreatedByID:    actor,
				UpdatedAt:      now,
				UpdatedByID:    actor,
			}
			if err := s.yearRepo.InsertProviderLink(ctx, q, link); err != nil {
				return err
			}
		case link.DeletedAt == nil:
			// Already onboarded.
			return nil
		default:
			// Soft-deleted previously: restore the same row so its revision
			// history stays in one sequence.
			link.DeletedAt = nil
			link.DeletedByID = nil
			link.UpdatedAt = now
			link.UpdatedByID = actor
			if err := s.yearRepo.UpdateProviderLink(ctx, q, link); err != nil {
				return err
			}
		}

		return s.recordProviderYearLink(ctx, q, link)
	})
}

func (s *providerService) RemoveAcademicYear(ctx context.Context, providerID, academicYearID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.providerRepo.Lock(ctx, q, providerID); err != nil {
			return err
		}
		link, err := s.yearRepo.FindProviderLink(ctx, q, providerID, academicYearID)
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
		if err := s.yearRepo.UpdateProviderLink(ctx, q, link); err != nil {
			return err
		}

		return s.recordProviderYearLink(ctx, q, link)
	})
}

// saveProvider stamps the update metadata, persists the row, and records the
// revision. Callers must already hold the provider's row lock.
func (s *providerService) saveProvider(ctx context.Context, q database.Querier, p *models.Provider) error {
	head, err := s.providerRevRepo.Latest(ctx, q, p.ID)
	if err != nil {
		return err
	}
	if head != nil && !revisions.Changed(p.TrackedValues(), head.TrackedValues()) {
		return nil
	}

	p.UpdatedAt = time.Now().UTC()
	p.UpdatedByID = models.ActorID(ctx)
	if err := s.providerRepo.Update(ctx, q, p); err != nil {
		return err
	}

	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderRevisions,
		EntityType: models.EntityTypeProvider,
		EntityID:   p.ID,
		Values:     p.TrackedValues(),
		DeletedAt:  p.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := p.Snapshot(number, at)
			if err := s.providerRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}

func (s *providerService) recordProvider(ctx context.Context, q database.Querier, p *models.Provider, head *models.ProviderRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderRevisions,
		EntityType: models.EntityTypeProvider,
		EntityID:   p.ID,
		Values:     p.TrackedValues(),
		DeletedAt:  p.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := p.Snapshot(number, at)
			if err := s.providerRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}

func (s *providerService) recordProviderYearLink(ctx context.Context, q database.Querier, link *models.ProviderAcademicYear) error {
	head, err := s.yearLinkRevRepo.Latest(ctx, q, link.ID)
	if err != nil {
		return err
	}
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderAcademicYearRevisions,
		EntityType: models.EntityTypeProviderAcademicYear,
		EntityID:   link.ID,
		Values:     link.TrackedValues(),
		DeletedAt:  link.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := link.Snapshot(number, at)
			if err := s.yearLinkRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
