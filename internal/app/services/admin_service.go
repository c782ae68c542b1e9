package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/auth"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/email"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// AdminService defines the interface for account oversight
type AdminService interface {
	PendingUsers(ctx context.Context) ([]dto.UserResponse, error)
	AllUsers(ctx context.Context) ([]dto.UserResponse, error)
	Admins(ctx context.Context) ([]dto.UserResponse, error)
	Approve(ctx context.Context, adminID, userID int64) (*dto.UserResponse, error)
	MakeAdmin(ctx context.Context, adminID, userID int64) (*dto.UserResponse, error)
	RemoveAdmin(ctx context.Context, adminID, userID int64) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, adminID, userID int64) (*dto.DeleteUserResponse, error)
	ExportAlumni(ctx context.Context, filter dto.UserFilter) ([]dto.ExportAlumniRow, error)
}

type adminServiceImpl struct {
	users    UserStore
	posts    PostStore
	tx       Transactor
	authz    *auth.AuthorizationService
	media    MediaRemover
	mailer   email.EmailService
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
	runAsync func(func())
}

// NewAdminService creates a new AdminService
func NewAdminService(
	users UserStore,
	posts PostStore,
	tx Transactor,
	authz *auth.AuthorizationService,
	media MediaRemover,
	mailer email.EmailService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) AdminService {
	return &adminServiceImpl{
		users:    users,
		posts:    posts,
		tx:       tx,
		authz:    authz,
		media:    media,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		runAsync: goAsync,
	}
}

func (s *adminServiceImpl) list(ctx context.Context, q models.UserQuery) ([]dto.UserResponse, error) {
	users, err := s.users.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponses(users), nil
}

// PendingUsers lists alumni and faculty awaiting approval.
func (s *adminServiceImpl) PendingUsers(ctx context.Context) ([]dto.UserResponse, error) {
	return s.list(ctx, models.UserQuery{
		Roles:    []models.Role{models.RoleAlumni, models.RoleFaculty},
		Approved: models.Bool(false),
		SortBy:   models.SortByNewest,
	})
}

// AllUsers lists every account by name.
func (s *adminServiceImpl) AllUsers(ctx context.Context) ([]dto.UserResponse, error) {
	return s.list(ctx, models.UserQuery{SortBy: models.SortByName})
}

// Admins lists faculty and admins other than the main admin.
func (s *adminServiceImpl) Admins(ctx context.Context) ([]dto.UserResponse, error) {
	return s.list(ctx, models.UserQuery{
		Roles:       []models.Role{models.RoleFaculty, models.RoleAdmin},
		IsMainAdmin: models.Bool(false),
		SortBy:      models.SortByName,
	})
}

func (s *adminServiceImpl) updateUser(ctx context.Context, userID int64, fn func(u *models.User) error) (*models.User, error) {
	var user *models.User
	err := withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		u.UpdatedAt = s.now()
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	return user, err
}

// Approve lets the user log in and emails them.
func (s *adminServiceImpl) Approve(ctx context.Context, adminID, userID int64) (*dto.UserResponse, error) {
	u, err := s.updateUser(ctx, userID, func(u *models.User) error {
		u.Approved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	to, name := u.Email, u.Name
	s.runAsync(func() {
		if err := s.mailer.SendApprovalEmail(to, name); err != nil {
			s.metrics.ExternalFailure("email")
			s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to send approval email")
		}
	})

	s.logger.Info().Int64("adminID", adminID).Int64("userID", userID).Msg("User approved")
	resp := dto.NewUserResponse(u, false)
	return &resp, nil
}

// MakeAdmin promotes a faculty member.
func (s *adminServiceImpl) MakeAdmin(ctx context.Context, adminID, userID int64) (*dto.UserResponse, error) {
	u, err := s.updateUser(ctx, userID, func(u *models.User) error {
		if u.Role != models.RoleFaculty {
			return apperrors.NewBadRequestError("only faculty members can be made admins")
		}
		u.Role = models.RoleAdmin
		u.IsAdmin = true
		u.Approved = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("adminID", adminID).Int64("userID", userID).Msg("User promoted to admin")
	resp := dto.NewUserResponse(u, false)
	return &resp, nil
}

// RemoveAdmin demotes an admin back to faculty. The main admin cannot be demoted.
func (s *adminServiceImpl) RemoveAdmin(ctx context.Context, adminID, userID int64) (*dto.UserResponse, error) {
	u, err := s.updateUser(ctx, userID, func(u *models.User) error {
		if err := s.authz.CanManageAccount(u); err != nil {
			return err
		}
		if !u.IsAdmin && u.Role != models.RoleAdmin {
			return apperrors.NewBadRequestError("user is not an admin")
		}
		u.Role = models.RoleFaculty
		u.IsAdmin = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("adminID", adminID).Int64("userID", userID).Msg("Admin rights removed")
	resp := dto.NewUserResponse(u, false)
	return &resp, nil
}

// detach removes the user from the relation lists of everyone they relate to.
func (s *adminServiceImpl) detach(ctx context.Context, u *models.User) error {
	related := map[int64]bool{}
	for _, id := range u.Excluded(u.ID) {
		if id != u.ID {
			related[id] = true
		}
	}
	for id := range related {
		_, err := s.updateUser(ctx, id, func(other *models.User) error {
			other.Detach(u.ID)
			return nil
		})
		if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
	}
	return nil
}

// DeleteUser removes an account with everything it owns. Media and email
// failures are logged and do not stop the cascade; only removing the user
// record itself can fail the call.
func (s *adminServiceImpl) DeleteUser(ctx context.Context, adminID, userID int64) (*dto.DeleteUserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManageAccount(u); err != nil {
		return nil, err
	}
	log := s.logger.With().Int64("adminID", adminID).Int64("userID", userID).Logger()
	resp := &dto.DeleteUserResponse{UserID: userID}

	refs := u.MediaURLs()
	posts, err := s.posts.ListAllByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect user posts, continuing without post media")
	}
	for _, p := range posts {
		refs = append(refs, p.MediaKeys()...)
	}
	log.Info().Int("mediaObjects", len(refs)).Int("posts", len(posts)).Msg("Collected user content for deletion")

	resp.MediaDeleted, resp.MediaFailed = removeMedia(ctx, s.media, userID, refs, s.metrics, log)
	log.Info().Int("deleted", resp.MediaDeleted).Int("failed", resp.MediaFailed).Msg("User media removed")

	if resp.PostsDeleted, err = s.posts.DeleteByUser(ctx, userID); err != nil {
		log.Error().Err(err).Msg("Failed to delete user posts, the user delete will cascade them")
	} else {
		log.Info().Int64("posts", resp.PostsDeleted).Msg("User posts deleted")
	}

	if err := s.detach(ctx, u); err != nil {
		log.Error().Err(err).Msg("Failed to detach user from connections")
	}

	to, name, approved := u.Email, u.Name, u.Approved
	s.runAsync(func() {
		send := s.mailer.SendDeletionEmail
		if !approved {
			send = s.mailer.SendRejectionEmail
		}
		if err := send(to, name); err != nil {
			s.metrics.ExternalFailure("email")
			log.Error().Err(err).Msg("Failed to send account removal email")
		}
	})

	if err := s.users.Delete(ctx, userID); err != nil {
		log.Error().Err(err).Msg("Failed to delete user")
		return nil, err
	}
	log.Info().Msg("User deleted")
	return resp, nil
}

// ExportAlumni lists approved alumni with their contact and career fields.
func (s *adminServiceImpl) ExportAlumni(ctx context.Context, filter dto.UserFilter) ([]dto.ExportAlumniRow, error) {
	users, err := s.users.Find(ctx, models.UserQuery{
		Roles:    []models.Role{models.RoleAlumni},
		Approved: models.Bool(true),
		Search:   filter.Query,
		Course:   filter.Course,
		Year:     filter.Year,
		Industry: filter.Industry,
		SortBy:   models.SortByName,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ExportAlumniRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, dto.ExportAlumniRow{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			EnrollmentNumber: u.EnrollmentNumber,
			Course:           u.Profile.Course,
			Year:             u.Profile.Year,
			Phone:            u.Profile.Phone,
			LinkedIn:         u.Profile.LinkedIn,
			CurrentCompany:   u.Profile.WorkProfile.CurrentCompany,
			Designation:      u.Profile.WorkProfile.Designation,
			Industry:         u.Profile.WorkProfile.Industry,
			TotalPoints:      u.Points.Total,
		})
	}
	return rows, nil
}
