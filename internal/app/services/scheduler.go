package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshTokenRetention is how long expired or revoked refresh tokens are kept.
const RefreshTokenRetention = 7 * 24 * time.Hour

// Scheduler runs periodic maintenance: the due rollover check and refresh
// token cleanup.
type Scheduler struct {
	rollover RolloverService
	tokens   TokenStore
	interval time.Duration
	rollOver bool
	logger   zerolog.Logger
	now      func() time.Time
}

// NewScheduler creates a Scheduler. When rolloverEnabled is false only the
// token cleanup runs.
func NewScheduler(rollover RolloverService, tokens TokenStore, interval time.Duration, rolloverEnabled bool, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		rollover: rollover,
		tokens:   tokens,
		interval: interval,
		rollOver: rolloverEnabled,
		logger:   logger,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Bool("rollover", s.rollOver).Msg("Scheduler started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one maintenance pass.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.rollOver {
		ran, err := s.rollover.RunIfDue(ctx)
		switch {
		case err != nil:
			s.logger.Error().Err(err).Msg("Scheduled rollover failed")
		case ran:
			s.logger.Info().Msg("Scheduled rollover executed")
		}
	}

	removed, err := s.tokens.CleanupExpiredTokens(ctx, s.now(), RefreshTokenRetention)
	if err != nil {
		s.logger.Error().Err(err).Msg("Refresh token cleanup failed")
		return
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("Expired refresh tokens removed")
	}
}
