package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/points"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// Rollover triggers, used for logging and metrics.
const (
	TriggerManual    = "manual"
	TriggerYearEnd   = "year_end"
	TriggerScheduler = "scheduler"
)

// RolloverService defines the interface for the yearly points reset
type RolloverService interface {
	ConfigureWindow(ctx context.Context, req *dto.RolloverConfigRequest) (*points.RolloverWindow, error)
	Execute(ctx context.Context, year int, trigger string) (*dto.RolloverResponse, error)
	ExecuteCurrentYear(ctx context.Context, trigger string) (*dto.RolloverResponse, error)
	RunIfDue(ctx context.Context) (bool, error)
}

type rolloverServiceImpl struct {
	users     UserStore
	windows   RolloverStore
	configs   PointsConfigStore
	pointsSvc PointsService
	tx        Transactor
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRolloverService creates a new RolloverService
func NewRolloverService(
	users UserStore,
	windows RolloverStore,
	configs PointsConfigStore,
	pointsSvc PointsService,
	tx Transactor,
	m *metrics.Metrics,
	logger zerolog.Logger,
) RolloverService {
	return &rolloverServiceImpl{
		users:     users,
		windows:   windows,
		configs:   configs,
		pointsSvc: pointsSvc,
		tx:        tx,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// ConfigureWindow stores the window for a year and re-arms it.
func (s *rolloverServiceImpl) ConfigureWindow(ctx context.Context, req *dto.RolloverConfigRequest) (*points.RolloverWindow, error) {
	w := &points.RolloverWindow{Year: req.Year, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := s.windows.Upsert(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info().Int("year", w.Year).Time("startDate", w.StartDate).Time("endDate", w.EndDate).Msg("Rollover window configured")
	return w, nil
}

// ExecuteCurrentYear rolls over the current calendar year.
func (s *rolloverServiceImpl) ExecuteCurrentYear(ctx context.Context, trigger string) (*dto.RolloverResponse, error) {
	return s.Execute(ctx, s.now().Year(), trigger)
}

// Execute snapshots and resets every alumnus's points for year. The run is
// claimed before any user is touched, so it happens at most once per year.
// Each user is reset in its own transaction; a failure skips that user.
func (s *rolloverServiceImpl) Execute(ctx context.Context, year int, trigger string) (*dto.RolloverResponse, error) {
	now := s.now()
	log := s.logger.With().Int("year", year).Str("trigger", trigger).Logger()

	w, err := s.windows.GetByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	if err := w.CheckRunnable(now); err != nil {
		s.metrics.Rollover(trigger, "rejected")
		log.Warn().Err(err).Msg("Rollover refused")
		return nil, err
	}

	claimed, err := s.windows.MarkExecuted(ctx, year, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.metrics.Rollover(trigger, "rejected")
		return nil, apperrors.NewBadRequestError("rollover for this year has already been executed")
	}

	ids, err := s.users.ListIDs(ctx, models.UserQuery{Roles: []models.Role{models.RoleAlumni}})
	if err != nil {
		s.metrics.Rollover(trigger, "failed")
		return nil, err
	}

	resp := &dto.RolloverResponse{Year: year, ExecutedAt: now}
	for _, id := range ids {
		err := withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
			u, err := s.users.GetByID(ctx, id)
			if err != nil {
				return err
			}
			l := u.Ledger()
			l.Rollover(year)
			u.SetLedger(l)
			return s.users.Update(ctx, u)
		})
		if err != nil {
			resp.UsersFailed++
			log.Error().Err(err).Int64("userID", id).Msg("Failed to roll over user points")
			continue
		}
		resp.UsersProcessed++
	}

	cfg, err := s.pointsSvc.GetConfig(ctx)
	if err == nil {
		cfg.LastRolloverExecutedAt = &now
		cfg.UpdatedAt = now
		err = s.configs.Save(ctx, cfg)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to record rollover time on points configuration")
	}

	outcome := "ok"
	if resp.UsersFailed > 0 {
		outcome = "partial"
	}
	s.metrics.Rollover(trigger, outcome)
	log.Info().Int("processed", resp.UsersProcessed).Int("failed", resp.UsersFailed).Msg("Rollover executed")
	return resp, nil
}

// RunIfDue executes the current year's rollover when its window is open and
// it has not run yet. It reports whether a rollover ran.
func (s *rolloverServiceImpl) RunIfDue(ctx context.Context) (bool, error) {
	year := s.now().Year()
	w, err := s.windows.GetByYear(ctx, year)
	if err != nil {
		return false, err
	}
	if w.CheckRunnable(s.now()) != nil {
		return false, nil
	}
	if _, err := s.Execute(ctx, year, TriggerScheduler); err != nil {
		return false, err
	}
	return true, nil
}
