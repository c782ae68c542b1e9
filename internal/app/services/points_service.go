package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/points"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

const (
	// LeaderboardSize is how many users a leaderboard shows.
	LeaderboardSize = 50
	// AwardEligibilityThreshold is the total that makes an alumnus eligible for an award.
	AwardEligibilityThreshold = 80
)

// PointsDefaults seed the configuration singleton when it is first created.
type PointsDefaults struct {
	ProfileCompletionPoints int
	ConnectionPoints        int
	PostPoints              int
	PostLimitCount          int
	PostLimitDays           int
}

// PointsService defines the interface for ledger operations
type PointsService interface {
	GetConfig(ctx context.Context) (*models.PointsConfig, error)
	UpdateConfig(ctx context.Context, req *dto.UpdatePointsConfigRequest) (*models.PointsConfig, error)
	Award(ctx context.Context, userID int64, category points.Category, amount int) (int, error)
	AwardPostCreation(ctx context.Context, userID int64) (int, error)
	AwardProfileCompletion(ctx context.Context, userID int64) (int, error)
	ManualAward(ctx context.Context, adminID int64, req *dto.ManualAwardRequest) (*dto.ManualAwardResponse, error)
	SyncTotals(ctx context.Context) (*dto.SyncPointsResponse, error)
	Leaderboard(ctx context.Context) ([]dto.RankedUser, error)
	LastYearLeaderboard(ctx context.Context) ([]dto.RankedUser, error)
	AwardEligible(ctx context.Context) ([]dto.RankedUser, error)
}

type pointsServiceImpl struct {
	users         UserStore
	configs       PointsConfigStore
	tx            Transactor
	notifications NotificationService
	defaults      PointsDefaults
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewPointsService creates a new PointsService
func NewPointsService(
	users UserStore,
	configs PointsConfigStore,
	tx Transactor,
	notifications NotificationService,
	defaults PointsDefaults,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PointsService {
	return &pointsServiceImpl{
		users:         users,
		configs:       configs,
		tx:            tx,
		notifications: notifications,
		defaults:      defaults,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

func (d PointsDefaults) config(now time.Time) *models.PointsConfig {
	return &models.PointsConfig{
		ProfileCompletionPoints: d.ProfileCompletionPoints,
		ConnectionPoints:        d.ConnectionPoints,
		PostPoints:              d.PostPoints,
		PostLimitCount:          d.PostLimitCount,
		PostLimitDays:           d.PostLimitDays,
		UpdatedAt:               now,
	}
}

// GetConfig returns the singleton, creating it with defaults when absent.
func (s *pointsServiceImpl) GetConfig(ctx context.Context) (*models.PointsConfig, error) {
	cfg, err := s.configs.Get(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, err
	}

	s.logger.Info().Msg("Points configuration missing, creating defaults")
	if err := s.configs.CreateIfMissing(ctx, s.defaults.config(s.now())); err != nil {
		return nil, err
	}
	return s.configs.Get(ctx)
}

// UpdateConfig applies a partial update to the singleton.
func (s *pointsServiceImpl) UpdateConfig(ctx context.Context, req *dto.UpdatePointsConfigRequest) (*models.PointsConfig, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	set := func(dst *int, v *int, min int, field string) error {
		if v == nil {
			return nil
		}
		if *v < min {
			return apperrors.NewValidationError(field, fmt.Sprintf("%s must be at least %d", field, min))
		}
		*dst = *v
		return nil
	}
	for _, f := range []struct {
		dst   *int
		v     *int
		min   int
		field string
	}{
		{&cfg.ProfileCompletionPoints, req.ProfileCompletionPoints, 0, "profileCompletionPoints"},
		{&cfg.ConnectionPoints, req.ConnectionPoints, 0, "connectionPoints"},
		{&cfg.PostPoints, req.PostPoints, 0, "postPoints"},
		{&cfg.PostLimitCount, req.PostLimitCount, 1, "postLimitCount"},
		{&cfg.PostLimitDays, req.PostLimitDays, 1, "postLimitDays"},
	} {
		if err := set(f.dst, f.v, f.min, f.field); err != nil {
			return nil, err
		}
	}

	cfg.UpdatedAt = s.now()
	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info().Interface("config", cfg).Msg("Points configuration updated")
	return cfg, nil
}

// mutateLedger applies fn to an alumnus's ledger under the version check.
// Other roles do not accrue points and are left untouched.
func (s *pointsServiceImpl) mutateLedger(ctx context.Context, userID int64, fn func(u *models.User, l *points.Ledger) int) (int, error) {
	var granted int
	err := withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		granted = 0
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !u.IsAlumni() {
			return nil
		}
		l := u.Ledger()
		granted = fn(u, &l)
		if granted == 0 {
			return nil
		}
		u.SetLedger(l)
		return s.users.Update(ctx, u)
	})
	return granted, err
}

// Award adds amount to one category of an alumnus and returns what was granted.
func (s *pointsServiceImpl) Award(ctx context.Context, userID int64, category points.Category, amount int) (int, error) {
	if _, err := points.ParseCategory(string(category)); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, apperrors.NewValidationError("amount", "amount must be greater than 0")
	}

	granted, err := s.mutateLedger(ctx, userID, func(_ *models.User, l *points.Ledger) int {
		if err := l.Balance.Award(category, amount); err != nil {
			return 0
		}
		return amount
	})
	if err != nil {
		return 0, err
	}
	s.metrics.PointsGranted(string(category), granted)
	return granted, nil
}

// AwardPostCreation grants the post reward through the rate limiter.
func (s *pointsServiceImpl) AwardPostCreation(ctx context.Context, userID int64) (int, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	rules, now := cfg.Rules(), s.now()

	granted, err := s.mutateLedger(ctx, userID, func(_ *models.User, l *points.Ledger) int {
		return l.AwardPost(rules, now)
	})
	if err != nil {
		return 0, err
	}
	if granted == 0 {
		s.logger.Debug().Int64("userID", userID).Msg("Post reward withheld by rate limit")
	}
	s.metrics.PointsGranted(string(points.ContentContribution), granted)
	return granted, nil
}

// AwardProfileCompletion grants the one-time reward once the profile is complete.
func (s *pointsServiceImpl) AwardProfileCompletion(ctx context.Context, userID int64) (int, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	rules := cfg.Rules()

	granted, err := s.mutateLedger(ctx, userID, func(u *models.User, l *points.Ledger) int {
		return l.AwardProfileCompletion(rules, u.Checklist())
	})
	if err != nil {
		return 0, err
	}
	if granted > 0 {
		s.logger.Info().Int64("userID", userID).Int("points", granted).Msg("Profile completion points awarded")
	}
	s.metrics.PointsGranted(string(points.ProfileCompletion), granted)
	return granted, nil
}

// ManualAward finds an alumnus by exact name or enrollment number and
// grants them points.
func (s *pointsServiceImpl) ManualAward(ctx context.Context, adminID int64, req *dto.ManualAwardRequest) (*dto.ManualAwardResponse, error) {
	category := points.AlumniParticipation
	if req.Category != "" {
		c, err := points.ParseCategory(req.Category)
		if err != nil {
			return nil, err
		}
		category = c
	}

	matches, err := s.users.Find(ctx, models.UserQuery{
		Roles: []models.Role{models.RoleAlumni},
		Exact: strings.TrimSpace(req.Search),
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperrors.NewResourceNotFoundError("no alumni found with that name or enrollment number")
	}
	target := matches[0]

	if _, err := s.Award(ctx, target.ID, category, req.Amount); err != nil {
		return nil, err
	}
	updated, err := s.users.GetByID(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = fmt.Sprintf("You have been awarded %d points by the Admin.", req.Amount)
	}
	s.notifications.Notify(ctx, NotificationInput{
		SenderID:   adminID,
		ReceiverID: target.ID,
		Type:       models.NotificationPointsAwarded,
		Message:    message,
	})

	s.logger.Info().
		Int64("adminID", adminID).
		Int64("userID", target.ID).
		Str("category", string(category)).
		Int("amount", req.Amount).
		Msg("Manual points award")

	return &dto.ManualAwardResponse{
		User:     dto.NewUserSummary(updated),
		Category: category,
		Amount:   req.Amount,
		Points:   updated.Points,
	}, nil
}

// SyncTotals re-derives every user's total and repairs drifted records.
func (s *pointsServiceImpl) SyncTotals(ctx context.Context) (*dto.SyncPointsResponse, error) {
	ids, err := s.users.ListIDs(ctx, models.UserQuery{})
	if err != nil {
		return nil, err
	}

	resp := &dto.SyncPointsResponse{}
	for _, id := range ids {
		var repaired bool
		err := withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
			repaired = false
			u, err := s.users.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if !u.Points.RecomputeTotal() {
				return nil
			}
			repaired = true
			return s.users.Update(ctx, u)
		})
		if errors.Is(err, apperrors.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resp.UsersChecked++
		if repaired {
			resp.UsersRepaired++
		}
	}

	s.logger.Info().Int("checked", resp.UsersChecked).Int("repaired", resp.UsersRepaired).Msg("Points totals synchronized")
	return resp, nil
}

func currentTotal(u *models.User) int { return u.Points.Total }

func lastYearTotal(u *models.User) int {
	if u.LastYearPoints == nil {
		return 0
	}
	return u.LastYearPoints.Total
}

// Leaderboard ranks approved alumni with points by their current total.
func (s *pointsServiceImpl) Leaderboard(ctx context.Context) ([]dto.RankedUser, error) {
	users, err := s.users.Find(ctx, models.UserQuery{
		Roles:    []models.Role{models.RoleAlumni},
		Approved: models.Bool(true),
		MinTotal: models.Int(1),
		SortBy:   models.SortByTotalPoints,
		Limit:    LeaderboardSize,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRankedUsers(users, currentTotal), nil
}

// LastYearLeaderboard ranks alumni by their archived total.
func (s *pointsServiceImpl) LastYearLeaderboard(ctx context.Context) ([]dto.RankedUser, error) {
	users, err := s.users.Find(ctx, models.UserQuery{
		Roles:       []models.Role{models.RoleAlumni},
		HasLastYear: true,
		SortBy:      models.SortByLastYearPoints,
		Limit:       LeaderboardSize,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRankedUsers(users, lastYearTotal), nil
}

// AwardEligible lists alumni whose total reached the award threshold.
func (s *pointsServiceImpl) AwardEligible(ctx context.Context) ([]dto.RankedUser, error) {
	users, err := s.users.Find(ctx, models.UserQuery{
		Roles:    []models.Role{models.RoleAlumni},
		MinTotal: models.Int(AwardEligibilityThreshold),
		SortBy:   models.SortByTotalPoints,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRankedUsers(users, currentTotal), nil
}
