package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/pkg/helpers"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// UserService defines the interface for profile operations
type UserService interface {
	GetMe(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	GetProfile(ctx context.Context, viewerID, profileID int64) (*dto.UserResponse, error)
	MyPosts(ctx context.Context, userID int64, page, size int) (*dto.PostListResponse, error)
	Activity(ctx context.Context, userID int64) ([]content.Activity, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	users   UserStore
	visits  VisitStore
	posts   PostStore
	media   MediaRemover
	points  PointsService
	tx      Transactor
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	users UserStore,
	visits VisitStore,
	posts PostStore,
	media MediaRemover,
	pointsSvc PointsService,
	tx Transactor,
	m *metrics.Metrics,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		users:   users,
		visits:  visits,
		posts:   posts,
		media:   media,
		points:  pointsSvc,
		tx:      tx,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// GetMe returns the caller's own profile, including request lists.
func (s *userServiceImpl) GetMe(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(u, true)
	return &resp, nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func applyProfile(u *models.User, req *dto.UpdateProfileRequest) {
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		u.Name = strings.TrimSpace(*req.Name)
	}
	p := &u.Profile
	applyString(&p.Bio, req.Bio)
	applyString(&p.Job, req.Job)
	applyString(&p.Course, req.Course)
	applyString(&p.Year, req.Year)
	applyString(&p.ProfilePicture, req.ProfilePicture)
	applyString(&p.BannerImage, req.BannerImage)
	applyString(&p.Phone, req.Phone)
	applyString(&p.Address, req.Address)
	applyString(&p.WhatsApp, req.WhatsApp)
	applyString(&p.LinkedIn, req.LinkedIn)
	if req.Education != nil {
		p.Education = *req.Education
	}
	if req.Experience != nil {
		p.Experience = *req.Experience
	}
	if req.Skills != nil {
		p.Skills = *req.Skills
	}
	if req.WorkProfile != nil {
		p.WorkProfile = *req.WorkProfile
	}
	if req.JobPreferences != nil {
		p.JobPreferences = *req.JobPreferences
	}
}

// UpdateMe applies a partial profile update. Replaced profile images are
// removed from storage and the completion reward is re-evaluated.
func (s *userServiceImpl) UpdateMe(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	for field, url := range map[string]*string{"profilePicture": req.ProfilePicture, "bannerImage": req.BannerImage} {
		if url == nil {
			continue
		}
		if _, err := ownedMedia(s.media, userID, field, *url); err != nil {
			return nil, err
		}
	}

	var replaced []string
	err := withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		replaced = replaced[:0]
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		oldPicture, oldBanner := u.Profile.ProfilePicture, u.Profile.BannerImage
		applyProfile(u, req)
		if oldPicture != "" && oldPicture != u.Profile.ProfilePicture {
			replaced = append(replaced, oldPicture)
		}
		if oldBanner != "" && oldBanner != u.Profile.BannerImage {
			replaced = append(replaced, oldBanner)
		}
		u.UpdatedAt = s.now()
		return s.users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	removeMedia(ctx, s.media, userID, replaced, s.metrics, s.logger)

	if _, err := s.points.AwardProfileCompletion(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to evaluate profile completion reward")
	}

	s.logger.Info().Int64("userID", userID).Msg("Profile updated")
	return s.GetMe(ctx, userID)
}

// GetProfile returns a public profile and counts the view. Viewing your
// own profile is not a visit.
func (s *userServiceImpl) GetProfile(ctx context.Context, viewerID, profileID int64) (*dto.UserResponse, error) {
	if viewerID == profileID {
		return s.GetMe(ctx, viewerID)
	}

	var profile *models.User
	err := withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, profileID)
		if err != nil {
			return err
		}
		last, err := s.visits.LastVisit(ctx, profileID, viewerID)
		if err != nil {
			return err
		}
		now := s.now()
		u.VisitStats.RecordVisit(last, now)
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		if err := s.visits.Touch(ctx, profileID, viewerID, now); err != nil {
			return err
		}
		profile = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewUserResponse(profile, false)
	return &resp, nil
}

// MyPosts pages through the caller's own posts.
func (s *userServiceImpl) MyPosts(ctx context.Context, userID int64, page, size int) (*dto.PostListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	posts, total, err := s.posts.List(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	rendered, err := renderPosts(ctx, s.users, posts)
	if err != nil {
		return nil, err
	}
	return &dto.PostListResponse{
		Posts:      rendered,
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// Activity lists what the caller reacted to, commented and replied across posts.
func (s *userServiceImpl) Activity(ctx context.Context, userID int64) ([]content.Activity, error) {
	posts, err := s.posts.ListInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity := content.CollectActivity(posts, userID)
	if activity == nil {
		activity = []content.Activity{}
	}
	return activity, nil
}
