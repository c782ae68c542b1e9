package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/auth"
)

// AdminStore is the slice of the user repository the seed needs.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
}

// PointsConfigStore creates the points config singleton.
type PointsConfigStore interface {
	CreateIfMissing(ctx context.Context, c *models.PointsConfig) error
}

// MainAdmin describes the account that must always hold main admin rights.
type MainAdmin struct {
	Name       string
	Email      string
	Password   string
	EmployeeID string
}

// CreateDefaultData ensures the main admin and the points config exist.
// Failures are collected so one missing piece does not hide the other.
func CreateDefaultData(ctx context.Context, users AdminStore, configs PointsConfigStore, admin MainAdmin, defaults models.PointsConfig, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (main admin, points config)...")
	var finalErr error

	if err := EnsureMainAdmin(ctx, users, admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error ensuring main admin")
		finalErr = errors.Join(finalErr, err)
	}

	if err := configs.CreateIfMissing(ctx, &defaults); err != nil {
		lgr.Error().Err(err).Msg("Error creating points config")
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

// EnsureMainAdmin creates the main admin account, or upgrades an existing
// account with the same email to main admin.
func EnsureMainAdmin(ctx context.Context, users AdminStore, admin MainAdmin, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Warn().Msg("Main admin email or password not configured, skipping creation")
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsMainAdmin && existing.IsAdmin && existing.Approved && existing.Role == models.RoleAdmin {
			lgr.Info().Int64("adminID", existing.ID).Msg("Main admin already exists, skipping creation")
			return nil
		}
		existing.Role = models.RoleAdmin
		existing.IsAdmin = true
		existing.IsMainAdmin = true
		existing.Approved = true
		if err := users.Update(ctx, existing); err != nil {
			return err
		}
		lgr.Info().Int64("adminID", existing.ID).Msg("Existing account upgraded to main admin")
		return nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return err
	}

	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	now := time.Now()
	u := &models.User{
		Name:        admin.Name,
		Email:       email,
		Password:    hashedPassword,
		Role:        models.RoleAdmin,
		EmployeeID:  admin.EmployeeID,
		IsAdmin:     true,
		IsMainAdmin: true,
		Approved:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	lgr.Info().Int64("adminID", u.ID).Msg("Main admin created successfully")
	return nil
}
