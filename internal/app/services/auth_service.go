package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/auth"
	"github.com/yigit/alumnet/internal/pkg/email"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// OTPExpiry is how long a password reset code stays valid.
const OTPExpiry = 60 * time.Second

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	GenerateTokenPair(id auth.Identity) (*auth.TokenPair, error)
}

// AuthService defines the interface for identity and session operations
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPasswordWithOTP(ctx context.Context, req *dto.ResetPasswordWithOTPRequest) error
}

type authServiceImpl struct {
	users    UserStore
	tokens   TokenStore
	otps     OTPStore
	tx       Transactor
	issuer   TokenIssuer
	mailer   email.EmailService
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
	runAsync func(func())
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	tokens TokenStore,
	otps OTPStore,
	tx Transactor,
	issuer TokenIssuer,
	mailer email.EmailService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		users:    users,
		tokens:   tokens,
		otps:     otps,
		tx:       tx,
		issuer:   issuer,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		runAsync: goAsync,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Signup registers an alumni or faculty account awaiting approval.
func (s *authServiceImpl) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error) {
	role := models.Role(req.Role)
	if !role.SignupAllowed() {
		return nil, apperrors.NewValidationError("role", "role must be alumni or faculty")
	}

	enrollment := strings.TrimSpace(req.EnrollmentNumber)
	employeeID := strings.TrimSpace(req.EmployeeID)
	switch role {
	case models.RoleAlumni:
		if enrollment == "" {
			return nil, apperrors.NewValidationError("enrollmentNumber", "enrollment number is required for alumni")
		}
		employeeID = ""
	case models.RoleFaculty:
		if employeeID == "" {
			return nil, apperrors.NewValidationError("employeeId", "employee id is required for faculty")
		}
		enrollment = ""
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Name:             strings.TrimSpace(req.Name),
		Email:            normalizeEmail(req.Email),
		Password:         hashed,
		Role:             role,
		EnrollmentNumber: enrollment,
		EmployeeID:       employeeID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			s.logger.Error().Err(err).Str("email", user.Email).Msg("Failed to create user")
		}
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("User signed up, awaiting approval")
	return &dto.SignupResponse{
		ID:      user.ID,
		Email:   user.Email,
		Message: "Signup successful, your account is pending admin approval",
	}, nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, u *models.User) (*dto.TokenResponse, error) {
	pair, err := s.issuer.GenerateTokenPair(auth.Identity{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        string(u.Role),
		IsAdmin:     u.IsAdmin,
		IsMainAdmin: u.IsMainAdmin,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", u.ID).Msg("Failed to generate tokens")
		return nil, err
	}
	if err := s.tokens.CreateToken(ctx, pair.RefreshToken, u.ID, pair.RefreshExpiry); err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}

// Login checks credentials and approval, then issues a session.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Msg("Login with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Approved && !user.IsAdmin {
		return nil, apperrors.ErrAccountNotApproved
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", user.ID).Msg("User logged in")
	return &dto.AuthResponse{Token: *tokens, User: dto.NewUserResponse(user, true)}, nil
}

// RefreshToken rotates a refresh token into a new session.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, err := s.tokens.GetUserIDByToken(ctx, refreshToken, s.now())
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}

	var tokens *dto.TokenResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
			return err
		}
		var err error
		tokens, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Logout revokes the refresh token.
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeToken(ctx, refreshToken)
}

func (s *authServiceImpl) setPassword(ctx context.Context, userID int64, plain string) error {
	hashed, err := auth.HashPassword(plain)
	if err != nil {
		return err
	}
	return withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u.Password = hashed
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		return s.tokens.RevokeAllUserTokens(ctx, userID)
	})
}

// ChangePassword replaces the password after checking the old one.
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		return apperrors.NewBadRequestError("old password is incorrect")
	}
	if err := s.setPassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Msg("Password changed")
	return nil
}

// ForgotPassword issues a one-time code and emails it. Earlier unused codes
// stop working.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewResourceNotFoundError("no account is registered with this email")
		}
		return err
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	hashed, err := auth.HashPassword(code)
	if err != nil {
		return err
	}

	now := s.now()
	otp := &models.PasswordResetOTP{
		UserID:    user.ID,
		CodeHash:  hashed,
		ExpiresAt: now.Add(OTPExpiry),
		CreatedAt: now,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return err
	}

	name, to := user.Name, user.Email
	s.runAsync(func() {
		if err := s.mailer.SendOTPEmail(to, name, code); err != nil {
			s.metrics.ExternalFailure("email")
			s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to send OTP email")
		}
	})
	s.logger.Info().Int64("userID", user.ID).Msg("Password reset code issued")
	return nil
}

// ResetPasswordWithOTP sets a new password when the code matches the
// latest live one.
func (s *authServiceImpl) ResetPasswordWithOTP(ctx context.Context, req *dto.ResetPasswordWithOTPRequest) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewResourceNotFoundError("no account is registered with this email")
		}
		return err
	}

	otp, err := s.otps.GetLatestActive(ctx, user.ID, s.now())
	if err != nil {
		return err
	}
	if otp == nil || !auth.CheckPassword(otp.CodeHash, strings.TrimSpace(req.OTP)) {
		return apperrors.ErrInvalidOTP
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	err = withRetry(ctx, s.tx, s.metrics, "user", func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		u.Password = hashed
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		if err := s.otps.MarkUsed(ctx, otp.ID); err != nil {
			return err
		}
		return s.tokens.RevokeAllUserTokens(ctx, user.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("userID", user.ID).Msg("Password reset with OTP")
	return nil
}
