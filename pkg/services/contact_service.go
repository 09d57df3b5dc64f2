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

// ContactInput carries the writable contact fields.
type ContactInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Telephone *string `json:"telephone"`
}

// ContactService manages provider contacts.
type ContactService interface {
	Create(ctx context.Context, providerID uuid.UUID, input ContactInput) (*models.ProviderContact, error)
	Update(ctx context.Context, id uuid.UUID, input ContactInput) (*models.ProviderContact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderContact, error)
}

type contactService struct {
	tx             database.TxRunner
	providerRepo   repositories.ProviderRepository
	contactRepo    repositories.ContactRepository
	contactRevRepo repositories.ContactRevisionRepository
	writer         *revisionWriter
	logger         *zap.Logger
}

func NewContactService(
	tx database.TxRunner,
	providerRepo repositories.ProviderRepository,
	contactRepo repositories.ContactRepository,
	contactRevRepo repositories.ContactRevisionRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) ContactService {
	return &contactService{
		tx:             tx,
		providerRepo:   providerRepo,
		contactRepo:    contactRepo,
		contactRevRepo: contactRevRepo,
		writer:         writer,
		logger:         logger.Named("contact-service"),
	}
}

var _ ContactService = (*contactService)(nil)

func validateContactInput(input ContactInput) error {
	if input.FirstName == "" || input.LastName == "" {
		return fmt.Errorf("%w: contact name is required", apperrors.ErrValidation)
	}
	if input.Email == "" {
		return fmt.Errorf("%w: contact email is required", apperrors.ErrValidation)
	}
	return nil
}

func (s *contactService) Create(ctx context.Context, providerID uuid.UUID, input ContactInput) (*models.ProviderContact, error) {
	if err := validateContactInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	c := &models.ProviderContact{
		ID:          uuid.New(),
		ProviderID:  providerID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Telephone:   input.Telephone,
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
		if err := s.contactRepo.Insert(ctx, q, c); err != nil {
			return err
		}
		return s.recordContact(ctx, q, c, nil)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contactService) Update(ctx context.Context, id uuid.UUID, input ContactInput) (*models.ProviderContact, error) {
	if err := validateContactInput(input); err != nil {
		return nil, err
	}

	var c *models.ProviderContact
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.contactRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		c, err = s.contactRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if c.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		c.FirstName = input.FirstName
		c.LastName = input.LastName
		c.Email = input.Email
		c.Telephone = input.Telephone

		return s.saveContact(ctx, q, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contactService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.contactRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		c, err := s.contactRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if c.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		c.DeletedAt = &now
		c.DeletedByID = models.ActorID(ctx)

		return s.saveContact(ctx, q, c)
	})
}

func (s *contactService) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.ProviderContact, error) {
	var contacts []*models.ProviderContact
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		contacts, err = s.contactRepo.ListByProvider(ctx, q, providerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (s *contactService) saveContact(ctx context.Context, q database.Querier, c *models.ProviderContact) error {
	head, err := s.contactRevRepo.Latest(ctx, q, c.ID)
	if err != nil {
		return err
	}
	if head != nil && !revisions.Changed(c.TrackedValues(), head.TrackedValues()) {
		return nil
	}

	c.UpdatedAt = time.Now().UTC()
	c.UpdatedByID = models.ActorID(ctx)
	if err := s.contactRepo.Update(ctx, q, c); err != nil {
		return err
	}
	return s.recordContact(ctx, q, c, head)
}

func (s *contactService) recordContact(ctx context.Context, q database.Querier, c *models.ProviderContact, head *models.ProviderContactRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableProviderContactRevisions,
		EntityType: models.EntityTypeProviderContact,
		EntityID:   c.ID,
		Values:     c.TrackedValues(),
		DeletedAt:  c.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := c.Snapshot(number, at)
			if err := s.contactRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
