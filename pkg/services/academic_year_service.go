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

// AcademicYearInput carries the writable academic year fields.
type AcademicYearInput struct {
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
}

// AcademicYearService manages the register's academic years.
type AcademicYearService interface {
	Create(ctx context.Context, input AcademicYearInput) (*models.AcademicYear, error)
	Update(ctx context.Context, id uuid.UUID, input AcademicYearInput) (*models.AcademicYear, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AcademicYear, error)
	List(ctx context.Context) ([]*models.AcademicYear, error)
}

type academicYearService struct {
	tx          database.TxRunner
	yearRepo    repositories.AcademicYearRepository
	yearRevRepo repositories.AcademicYearRevisionRepository
	writer      *revisionWriter
	logger      *zap.Logger
}

func NewAcademicYearService(
	tx database.TxRunner,
	yearRepo repositories.AcademicYearRepository,
	yearRevRepo repositories.AcademicYearRevisionRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) AcademicYearService {
	return &academicYearService{
		tx:          tx,
		yearRepo:    yearRepo,
		yearRevRepo: yearRevRepo,
		writer:      writer,
		logger:      logger.Named("academic-year-service"),
	}
}

var _ AcademicYearService = (*academicYearService)(nil)

func validateAcademicYearInput(input AcademicYearInput) error {
	if input.Name == "" || input.Code == "" {
		return fmt.Errorf("%w: academic year name and code are required", apperrors.ErrValidation)
	}
	if input.StartsOn.IsZero() || input.EndsOn.IsZero() {
		return fmt.Errorf("%w: academic year dates are required", apperrors.ErrValidation)
	}
	if input.EndsOn.Before(input.StartsOn) {
		return fmt.Errorf("%w: end date is before start date", apperrors.ErrValidation)
	}
	return nil
}

func (s *academicYearService) Create(ctx context.Context, input AcademicYearInput) (*models.AcademicYear, error) {
	if err := validateAcademicYearInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	y := &models.AcademicYear{
		ID:          uuid.New(),
		Name:        input.Name,
		Code:        input.Code,
		StartsOn:    input.StartsOn,
		EndsOn:      input.EndsOn,
		CreatedAt:   now,
		CreatedByID: actor,
		UpdatedAt:   now,
		UpdatedByID: actor,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.yearRepo.Insert(ctx, q, y); err != nil {
			return err
		}
		return s.recordYear(ctx, q, y, nil)
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

func (s *academicYearService) Update(ctx context.Context, id uuid.UUID, input AcademicYearInput) (*models.AcademicYear, error) {
	if err := validateAcademicYearInput(input); err != nil {
		return nil, err
	}

	var y *models.AcademicYear
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.yearRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		var err error
		y, err = s.yearRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if y.DeletedAt != nil {
			return apperrors.ErrNotFound
		}

		y.Name = input.Name
		y.Code = input.Code
		y.StartsOn = input.StartsOn
		y.EndsOn = input.EndsOn

		head, err := s.yearRevRepo.Latest(ctx, q, y.ID)
		if err != nil {
			return err
		}
		if head != nil && !revisions.Changed(y.TrackedValues(), head.TrackedValues()) {
			return nil
		}

		y.UpdatedAt = time.Now().UTC()
		y.UpdatedByID = models.ActorID(ctx)
		if err := s.yearRepo.Update(ctx, q, y); err != nil {
			return err
		}
		return s.recordYear(ctx, q, y, head)
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

func (s *academicYearService) Get(ctx context.Context, id uuid.UUID) (*models.AcademicYear, error) {
	var y *models.AcademicYear
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		y, err = s.yearRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if y.DeletedAt != nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

func (s *academicYearService) List(ctx context.Context) ([]*models.AcademicYear, error) {
	var years []*models.AcademicYear
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		years, err = s.yearRepo.List(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return years, nil
}

func (s *academicYearService) recordYear(ctx context.Context, q database.Querier, y *models.AcademicYear, head *models.AcademicYearRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableAcademicYearRevisions,
		EntityType: models.EntityTypeAcademicYear,
		EntityID:   y.ID,
		Values:     y.TrackedValues(),
		DeletedAt:  y.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := y.Snapshot(number, at)
			if err := s.yearRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
