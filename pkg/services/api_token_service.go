package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/repositories"
)

// IssuedToken pairs a stored token row with its plaintext secret. The
// plaintext exists only in this value, never in the database.
type IssuedToken struct {
	Token     *models.APIClientToken `json:"token"`
	Plaintext string                 `json:"plaintext"`
}

// APITokenService issues and revokes API client tokens. Tokens are tracked
// entities: issuing and revoking both land in the activity feed.
type APITokenService interface {
	Issue(ctx context.Context, description string, expiresAt *time.Time) (*IssuedToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.APIClientToken, error)

	// Authenticate resolves a presented plaintext token to its stored row,
	// rejecting revoked and expired tokens.
	Authenticate(ctx context.Context, plaintext string) (*models.APIClientToken, error)
}

type apiTokenService struct {
	tx           database.TxRunner
	tokenRepo    repositories.APITokenRepository
	tokenRevRepo repositories.APITokenRevisionRepository
	writer       *revisionWriter
	logger       *zap.Logger
}

func NewAPITokenService(
	tx database.TxRunner,
	tokenRepo repositories.APITokenRepository,
	tokenRevRepo repositories.APITokenRevisionRepository,
	writer *revisionWriter,
	logger *zap.Logger,
) APITokenService {
	return &apiTokenService{
		tx:           tx,
		tokenRepo:    tokenRepo,
		tokenRevRepo: tokenRevRepo,
		writer:       writer,
		logger:       logger.Named("api-token-service"),
	}
}

var _ APITokenService = (*apiTokenService)(nil)

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (s *apiTokenService) Issue(ctx context.Context, description string, expiresAt *time.Time) (*IssuedToken, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: token description is required", apperrors.ErrValidation)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	plaintext := hex.EncodeToString(raw)

	now := time.Now().UTC()
	actor := models.ActorID(ctx)
	t := &models.APIClientToken{
		ID:          uuid.New(),
		Description: description,
		TokenHash:   hashToken(plaintext),
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		CreatedByID: actor,
		UpdatedAt:   now,
		UpdatedByID: actor,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.tokenRepo.Insert(ctx, q, t); err != nil {
			return err
		}
		return s.recordToken(ctx, q, t, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("API token issued", zap.String("token_id", t.ID.String()))
	return &IssuedToken{Token: t, Plaintext: plaintext}, nil
}

func (s *apiTokenService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		if err := s.tokenRepo.Lock(ctx, q, id); err != nil {
			return err
		}
		t, err := s.tokenRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if t.DeletedAt != nil || t.RevokedAt != nil {
			return apperrors.ErrNotFound
		}

		now := time.Now().UTC()
		t.RevokedAt = &now
		t.UpdatedAt = now
		t.UpdatedByID = models.ActorID(ctx)
		if err := s.tokenRepo.Update(ctx, q, t); err != nil {
			return err
		}

		head, err := s.tokenRevRepo.Latest(ctx, q, t.ID)
		if err != nil {
			return err
		}
		if err := s.recordToken(ctx, q, t, head); err != nil {
			return err
		}
		s.logger.Info("API token revoked", zap.String("token_id", t.ID.String()))
		return nil
	})
}

func (s *apiTokenService) List(ctx context.Context) ([]*models.APIClientToken, error) {
	var tokens []*models.APIClientToken
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		tokens, err = s.tokenRepo.List(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *apiTokenService) Authenticate(ctx context.Context, plaintext string) (*models.APIClientToken, error) {
	var t *models.APIClientToken
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		t, err = s.tokenRepo.GetByHash(ctx, q, hashToken(plaintext))
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if t.RevokedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now().UTC()) {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (s *apiTokenService) recordToken(ctx context.Context, q database.Querier, t *models.APIClientToken, head *models.APIClientTokenRevision) error {
	return s.writer.Record(ctx, q, revisionInput{
		Table:      models.TableAPITokenRevisions,
		EntityType: models.EntityTypeAPIToken,
		EntityID:   t.ID,
		Values:     t.TrackedValues(),
		DeletedAt:  t.DeletedAt,
		Head:       headRecord(head),
		Persist: func(number int, at time.Time) (models.RevisionRecord, error) {
			rev := t.Snapshot(number, at)
			if err := s.tokenRevRepo.Insert(ctx, q, rev); err != nil {
				return nil, err
			}
			return rev, nil
		},
	})
}
