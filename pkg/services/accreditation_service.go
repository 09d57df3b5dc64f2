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

// AccreditationInput carries the writable accreditation fields.
type AccreditationInput struct {
	Number   string     `json:"number"`
	StartsOn time.Time  `json:"starts_on"`
	EndsOn   *time.Time `json:"ends_on"`
}

// AccreditationService manages provider accreditations. Every mutation also
// refreshes the owning provider's derived accreditation flag in the same
// transaction, so the flag can never lag behind the rows that drive it.
type AccreditationService interface {
	Create(ctx context.Context, providerID uuid.UUID, input AccreditationInput) (*models.ProviderAccreditation, error)
	Update(ctx context.Context, id uuid.UUID, input AccreditationInput) (*models.ProviderAccreditation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.ProviderAccreditation, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderAccreditation, error)
}

// accreditationFlagRefresher is the slice of AccreditationStatusService the
// accreditation service needs.
type accreditationFlagRefresher interface {
	RefreshInTx(ctx context.Context, q database.Querier, providerID uuid.UUID) (bool, error)
}

type accreditationService struct {
	tx            database.TxRunner
	providerRepo  repositories.ProviderRepository
	accredRepo    repositories.AccreditationRepository
	accredRevRepo repositories.AccreditationRevisionRepository
	refresher     accreditationFlagRefresher
	writer        *revisionWriter
	logger        *zap.Logger
}

func NewAccreditationService(
	tx database.TxRunner,
	providerRepo repositories.ProviderRepository,
	accredRepo repositories.AccreditationRepository,
	accredRevRepo repositories.AccreditationRevisionRepository,
	refresher accreditationFlagRefresher,
	writer *revisionWriter,
	logger *zap.Logger,
) AccreditationService {
	return &accreditationService{
		tx:            tx,
		providerRepo:  providerRepo,
		accredRepo:    accredRepo,
		accredRevRepo: accredRevRepo,
		refresher:     refresher,
		writer:        writer,
		logger:        logger.Named("accreditation-service"),
	}
}

var _ AccreditationService = (*accreditationService)(nil)

func validateAccreditationInput(input AccreditationInput) error {
	if input.Number == "" {
		return fmt.Errorf("%w: accreditation number is required", apperrors.ErrValidation)
	}
	if input.StartsOn.IsZero() {
		return fmt.Errorf("%w: start date is required", apperrors.ErrValidation)
	}
	if input.EndsOn != nil && input.EndsOn.Before(input.StartsOn) {
		return fmt.Errorf("%w: end date is before start date", apperrors.ErrValidation)
	}
	return nil
}

func (s *accreditationService) Create(ctx context.Context, providerID uuid.UUID, input AccreditationInput) (*models.ProviderAccreditation, error) {
	if err := validateAccreditationInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	a := &models.ProviderAccreditation{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Number:      input.Number,
		StartsOn:    input.StartsOn,
		EndsOn:      input.EndsOn,
		CreatedAt:   now,
		CreatedByID: actor,
		UpdatedAt:   now,
		UpdatedByID: actor,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		p, err := s.providerRepo.GetByID(ctx, q, providerID)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		if err := s.accredRepo.Insert(ctx, q, a); err != nil {
			return err
		}
		if err := s.recordAccreditation(ctx, q, a, nil); err != nil {
			return err
		}
		_, err = s.refresher.RefreshInTx(ctx, q, providerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Accreditation created",
		zap.String("accreditation_id", a.ID.String()),
		zap.String("provider_id", providerID.String()))
	return a, nil
}

func (s *accreditationService) Update(ctx context.Context, id uuid.UUID, input AccreditationInput) (*models.ProviderAccreditation, error) {
	if err := validateAccreditationInput(input); err != nil {
		return nil, err
	}

	var a *models.ProviderAccreditation
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.accredRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		a, err = s.accredRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if a.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		a.Number = input.Number
		a.StartsOn = input.StartsOn
		a.EndsOn = input.EndsOn

		if err := s.saveAccreditation(ctx, q, a); err != nil {
			return err
		}
		_, err = s.refresher.RefreshInTx(ctx, q, a.ProviderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accreditationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.accredRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		a, err := s.accredRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if a.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		a.DeletedAt = &now
		a.DeletedByID = models.ActorID(ctx)

		if err := s.saveAccreditation(ctx, q, a); err != nil {
			return err
		}
		_, err = s.refresher.RefreshInTx(ctx, q, a.ProviderID)
		return err
	})
}

func (s *accreditationService) Get(ctx context.Context, id uuid.UUID) (*models.ProviderAccreditation, error) {
	var a *models.ProviderAccreditation
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		a, err = s.accredRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if a.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accreditationService) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderAccreditation, error) {
	var accreditations []*models.ProviderAccreditation
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		accreditations, err = s.accredRepo.ListByProvider(ctx, q, providerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accreditations, nil
}

func (s *accreditationService) saveAccreditation(ctx context.Context, q database.Querier, a *models.ProviderAccreditation) error {
	head, err := s.accredRevRepo.Latest(ctx, q, a.ID)
	if err != nil {
		return err
	}
	if head != nil && !revisions.Changed(a.TrackedValues(), head.TrackedValues()) {
		return nil
	}

	a.UpdatedAt = time.Now().UTC()
	a.UpdatedByID = models.ActorID(ctx)
	if err := s.accredRepo.Update(ctx, q, a); err != nil {
		return err
	}
	return s.recordAccreditation(ctx, q, a, head)
}

func (s *accreditationService) recordAccreditation(ctx context.Context, q database.Querier, a *models.ProviderAccreditation, head *models.ProviderAccreditationRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderAccreditationRevisions,
		EntityType: models.EntityTypeProviderAccreditation,
		EntityID:   a.ID,
		Values:     a.TrackedValues(),
		DeletedAt:  a.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := a.Snapshot(number, at)
			if err := s.accredRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
