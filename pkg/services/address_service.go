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

// AddressInput carries the writable address fields. Coordinates arrive from
// the geocoding step alongside the postal fields.
type AddressInput struct {
	Line1     string   `json:"line1"`
	Line2     *string  `json:"line2"`
	Line3     *string  `json:"line3"`
	Town      string   `json:"town"`
	County    *string  `json:"county"`
	Postcode  string   `json:"postcode"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// AddressService manages provider addresses.
type AddressService interface {
	Create(ctx context.Context, providerID uuid.UUID, input AddressInput) (*models.ProviderAddress, error)
	Update(ctx context.Context, id uuid.UUID, input AddressInput) (*models.ProviderAddress, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderAddress, error)
}

type addressService struct {
	tx             database.TxRunner
	providerRepo   repositories.ProviderRepository
	addressRepo    repositories.AddressRepository
	addressRevRepo repositories.AddressRevisionRepository
	writer         *revisionWriter
	logger         *zap.Logger
}

func NewAddressService(
	tx database.TxRunner,
	providerRepo repositories.ProviderRepository,
	addressRepo repositories.AddressRepository,
	addressRevRepo repositories.AddressRevisionRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) AddressService {
	return &addressService{
		tx:             tx,
		providerRepo:   providerRepo,
		addressRepo:    addressRepo,
		addressRevRepo: addressRevRepo,
		writer:         writer,
		logger:         logger.Named("address-service"),
	}
}

var _ AddressService = (*addressService)(nil)

func validateAddressInput(input AddressInput) error {
	if input.Line1 == "" {
		return fmt.Errorf("%w: address line 1 is required", apperrors.ErrValidation)
	}
	if input.Town == "" {
		return fmt.Errorf("%w: town is required", apperrors.ErrValidation)
	}
	if input.Postcode == "" {
		return fmt.Errorf("%w: postcode is required", apperrors.ErrValidation)
	}
	return nil
}

func (s *addressService) Create(ctx context.Context, providerID uuid.UUID, input AddressInput) (*models.ProviderAddress, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	a := &models.ProviderAddress{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Line1:       input.Line1,
		Line2:       input.Line2,
		Line3:       input.Line3,
		Town:        input.Town,
		County:      input.County,
		Postcode:    input.Postcode,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
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
		if err := s.addressRepo.Insert(ctx, q, a); err != nil {
			return err
		}
		return s.recordAddress(ctx, q, a, nil)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *addressService) Update(ctx context.Context, id uuid.UUID, input AddressInput) (*models.ProviderAddress, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	var a *models.ProviderAddress
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.addressRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		a, err = s.addressRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if a.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		a.Line1 = input.Line1
		a.Line2 = input.Line2
		a.Line3 = input.Line3
		a.Town = input.Town
		a.County = input.County
		a.Postcode = input.Postcode
		a.Latitude = input.Latitude
		a.Longitude = input.Longitude

		return s.saveAddress(ctx, q, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *addressService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.addressRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		a, err := s.addressRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if a.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		a.DeletedAt = &now
		a.DeletedByID = models.ActorID(ctx)

		return s.saveAddress(ctx, q, a)
	})
}

func (s *addressService) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderAddress, error) {
	var addresses []*models.ProviderAddress
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		addresses, err = s.addressRepo.ListByProvider(ctx, q, providerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *addressService) saveAddress(ctx context.Context, q database.Querier, a *models.ProviderAddress) error {
	head, err := s.addressRevRepo.Latest(ctx, q, a.ID)
	if err != nil {
		return err
	}
	if head != nil && !revisions.Changed(a.TrackedValues(), head.TrackedValues()) {
		return nil
	}

	a.UpdatedAt = time.Now().UTC()
	a.UpdatedByID = models.ActorID(ctx)
	if err := s.addressRepo.Update(ctx, q, a); err != nil {
		return err
	}
	return s.recordAddress(ctx, q, a, head)
}

func (s *addressService) recordAddress(ctx context.Context, q database.Querier, a *models.ProviderAddress, head *models.ProviderAddressRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderAddressRevisions,
		EntityType: models.EntityTypeProviderAddress,
		EntityID:   a.ID,
		Values:     a.TrackedValues(),
		DeletedAt:  a.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := a.Snapshot(number, at)
			if err := s.addressRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
