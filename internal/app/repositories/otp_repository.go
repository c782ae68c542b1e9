package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

// OTPRepository stores hashed password reset codes.
type OTPRepository struct {
	baseRepository
}

// NewOTPRepository creates a new OTPRepository
func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{baseRepository: newBase(pool)}
}

// Create stores a new code for the user and invalidates any unused ones.
func (r *OTPRepository) Create(ctx context.Context, otp *models.PasswordResetOTP) error {
	invalidate, invArgs, err := r.sb.Update("password_reset_otps").
		Set("used", true).
		Where(squirrel.Eq{"user_id": otp.UserID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build invalidate otp query: %w", err)
	}
	if _, err := r.conn(ctx).Exec(ctx, invalidate, invArgs...); err != nil {
		logger.Error().Err(err).Int64("userID", otp.UserID).Msg("Error invalidating previous OTPs")
		return fmt.Errorf("error invalidating previous otps: %w", err)
	}

	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	sql, args, err := r.sb.Insert("password_reset_otps").
		Columns("user_id", "code_hash", "expires_at", "used", "created_at").
		Values(otp.UserID, otp.CodeHash, otp.ExpiresAt, false, otp.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create otp query: %w", err)
	}
	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&otp.ID); err != nil {
		logger.Error().Err(err).Int64("userID", otp.UserID).Msg("Error executing create otp query")
		return fmt.Errorf("error creating otp: %w", err)
	}
	return nil
}

// GetLatestActive returns the newest unused, unexpired code of the user, or nil.
func (r *OTPRepository) GetLatestActive(ctx context.Context, userID int64, now time.Time) (*models.PasswordResetOTP, error) {
	sql, args, err := r.sb.Select("id", "user_id", "code_hash", "expires_at", "used", "created_at").
		From("password_reset_otps").
		Where(squirrel.Eq{"user_id": userID, "used": false}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get otp query: %w", err)
	}

	otp := &models.PasswordResetOTP{}
	err = r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&otp.ID, &otp.UserID, &otp.CodeHash, &otp.ExpiresAt, &otp.Used, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning otp row")
		return nil, fmt.Errorf("error retrieving otp: %w", err)
	}
	return otp, nil
}

// MarkUsed consumes a code.
func (r *OTPRepository) MarkUsed(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("password_reset_otps").Set("used", true).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark otp used query: %w", err)
	}
	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("otpID", id).Msg("Error marking otp used")
		return fmt.Errorf("error marking otp used: %w", err)
	}
	return nil
}
