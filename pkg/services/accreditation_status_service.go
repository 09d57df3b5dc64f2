package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/repositories"
)

// accreditationFlagWriter is the slice of ProviderService the status service
// needs: flipping the derived flag with its revision and activity log entry.
type accreditationFlagWriter interface {
	SetAccreditationFlag(ctx context.Context, q database.Querier, providerID uuid.UUID, accredited bool) (bool, error)
}

// AccreditationStatusService keeps each provider's derived is_accredited flag
// in line with its accreditation rows. It runs reactively after accreditation
// writes and on a schedule to catch accreditations that start or lapse purely
// through the passage of time.
type AccreditationStatusService interface {
	// Refresh recomputes one provider's flag. Reports whether it changed.
	Refresh(ctx context.Context, providerID uuid.UUID) (bool, error)

	// RefreshInTx is Refresh inside the caller's transaction.
	RefreshInTx(ctx context.Context, q database.Querier, providerID uuid.UUID) (bool, error)

	// RefreshAll finds every provider whose stored flag disagrees with its
	// accreditation rows and corrects them. Returns the number corrected.
	RefreshAll(ctx context.Context) (int, error)

	// RunScheduler starts a background goroutine that runs RefreshAll on the
	// given interval. It runs immediately on startup, then repeats every
	// interval. Cancel the context to stop the scheduler.
	RunScheduler(ctx context.Context, interval time.Duration)
}

type accreditationStatusService struct {
	tx         database.TxRunner
	accredRepo repositories.AccreditationRepository
	flags      accreditationFlagWriter
	logger     *zap.Logger
	now        func() time.Time
}

func NewAccreditationStatusService(
	tx database.TxRunner,
	accredRepo repositories.AccreditationRepository,
	flags accreditationFlagWriter,
	logger *zap.Logger,
) AccreditationStatusService {
	return &accreditationStatusService{
		tx:         tx,
		accredRepo: accredRepo,
		flags:      flags,
		logger:     logger.Named("accreditation-status"),
		now:        time.Now,
	}
}

var _ AccreditationStatusService = (*accreditationStatusService)(nil)

func (s *accreditationStatusService) Refresh(ctx context.Context, providerID uuid.UUID) (bool, error) {
	var changed bool
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		changed, err = s.RefreshInTx(ctx, q, providerID)
		return err
	})
	return changed, err
}

func (s *accreditationStatusService) RefreshInTx(ctx context.Context, q database.Querier, providerID uuid.UUID) (bool, error) {
	accredited, err := s.accredRepo.HasCurrent(ctx, q, providerID, s.now().UTC())
	if err != nil {
		return false, err
	}
	return s.flags.SetAccreditationFlag(ctx, q, providerID, accredited)
}

func (s *accreditationStatusService) RefreshAll(ctx context.Context) (int, error) {
	now := s.now().UTC()

	// Two set queries find the drifted providers; each flip then goes through
	// the normal revisioned write path, one provider per transaction so a
	// single bad row cannot roll back the whole sweep.
	var gained, lapsed []uuid.UUID
	err := s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		var err error
		if gained, err = s.accredRepo.NewlyAccredited(ctx, q, now); err != nil {
			return err
		}
		lapsed, err = s.accredRepo.NewlyLapsed(ctx, q, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, id := range gained {
		if err := s.set(ctx, id, true, &changed); err != nil {
			return changed, err
		}
	}
	for _, id := range lapsed {
		if err := s.set(ctx, id, false, &changed); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (s *accreditationStatusService) set(ctx context.Context, providerID uuid.UUID, accredited bool, changed *int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q database.Querier) error {
		flipped, err := s.flags.SetAccreditationFlag(ctx, q, providerID, accredited)
		if err != nil {
			return err
		}
		if flipped {
			*changed++
			s.logger.Info("Provider accreditation flag updated",
				zap.String("provider_id", providerID.String()),
				zap.Bool("is_accredited", accredited))
		}
		return nil
	})
}

func (s *accreditationStatusService) RunScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		s.logger.Info("Starting accreditation status scheduler",
			zap.Duration("interval", interval))

		s.runSweep(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Accreditation status scheduler stopped")
				return
			case <-ticker.C:
				s.runSweep(ctx)
			}
		}
	}()
}

func (s *accreditationStatusService) runSweep(ctx context.Context) {
	changed, err := s.RefreshAll(ctx)
	if err != nil {
		s.logger.Error("Accreditation status sweep failed", zap.Error(err))
		return
	}
	if changed > 0 {
		s.logger.Info("Accreditation status sweep complete",
			zap.Int("providers_changed", changed))
	}
}
