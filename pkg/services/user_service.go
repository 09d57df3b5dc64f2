package services

import (
	"context"
	"errors"
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

// UserInput carries the writable user fields.
type UserInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

// UserService manages back-office users. User accounts are revisioned like
// every other tracked entity so account changes show up in the activity feed.
type UserService interface {
	Create(ctx context.Context, input UserInput) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, input UserInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type userService struct {
	tx          database.TxRunner
	userRepo    repositories.UserRepository
	userRevRepo repositories.UserRevisionRepository
	writer      *revisionWriter
	logger      *zap.Logger
}

func NewUserService(
	tx database.TxRunner,
	userRepo repositories.UserRepository,
	userRevRepo repositories.UserRevisionRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) UserService {
	return &userService{
		tx:          tx,
		userRepo:    userRepo,
		userRevRepo: userRevRepo,
		writer:      writer,
		logger:      logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func validateUserInput(input UserInput) error {
	if input.FirstName == "" || input.LastName == "" {
		return fmt.Errorf("%w: user name is required", apperrors.ErrValidation)
	}
	if input.Email == "" {
		return fmt.Errorf("%w: user email is required", apperrors.ErrValidation)
	}
	return nil
}

func (s *userService) Create(ctx context.Context, input UserInput) (*models.User, error) {
	if err := validateUserInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	u := &models.User{
		ID:          uuid.New(),
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Active:      input.Active,
		CreatedAt:   now,
		CreatedByID: actor,
		UpdatedAt:   now,
		UpdatedByID: actor,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		existing, err := s.userRepo.GetByEmail(ctx, q, input.Email)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			return apperrors.ErrConflict
		}
		if err := s.userRepo.Insert(ctx, q, u); err != nil {
			return err
		}
		return s.recordUser(ctx, q, u, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, input UserInput) (*models.User, error) {
	if err := validateUserInput(input); err != nil {
		return nil, err
	}

	var u *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.userRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		u, err = s.userRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if u.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		u.FirstName = input.FirstName
		u.LastName = input.LastName
		u.Email = input.Email
		u.Active = input.Active

		return s.saveUser(ctx, q, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.userRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		u, err := s.userRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if u.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		u.DeletedAt = &now
		u.DeletedByID = models.ActorID(ctx)
		u.Active = false

		return s.saveUser(ctx, q, u)
	})
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		u, err = s.userRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if u.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		users, err = s.userRepo.List(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userService) saveUser(ctx context.Context, q database.Querier, u *models.User) error {
	head, err := s.userRevRepo.Latest(ctx, q, u.ID)
	if err != nil {
		return err
	}
	if head != nil && !revisions.Changed(u.TrackedValues(), head.TrackedValues()) {
		return nil
	}

	u.UpdatedAt = time.Now().UTC()
	u.UpdatedByID = models.ActorID(ctx)
	if err := s.userRepo.Update(ctx, q, u); err != nil {
		return err
	}
	return s.recordUser(ctx, q, u, head)
}

func (s *userService) recordUser(ctx context.Context, q database.Querier, u *models.User, head *models.UserRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableUserRevisions,
		EntityType: models.EntityTypeUser,
		EntityID:   u.ID,
		Values:     u.TrackedValues(),
		DeletedAt:  u.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := u.Snapshot(number, at)
			if err := s.userRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
