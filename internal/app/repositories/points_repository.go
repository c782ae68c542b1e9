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
	"github.com/yigit/alumnet/internal/domain/points"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

const pointsConfigID = 1

// PointsConfigRepository stores the singleton points configuration row.
type PointsConfigRepository struct {
	baseRepository
}

// NewPointsConfigRepository creates a new PointsConfigRepository
func NewPointsConfigRepository(pool *pgxpool.Pool) *PointsConfigRepository {
	return &PointsConfigRepository{baseRepository: newBase(pool)}
}

// Get returns the configuration, or apperrors.ErrResourceNotFound when the
// row has not been created yet.
func (r *PointsConfigRepository) Get(ctx context.Context) (*models.PointsConfig, error) {
	sql, args, err := r.sb.Select("profile_completion_points", "connection_points", "post_points",
		"post_limit_count", "post_limit_days", "rollover_date", "last_rollover_executed_at", "updated_at").
		From("points_system_config").
		Where(squirrel.Eq{"id": pointsConfigID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get points config query: %w", err)
	}

	c := &models.PointsConfig{}
	err = r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&c.ProfileCompletionPoints, &c.ConnectionPoints, &c.PostPoints,
		&c.PostLimitCount, &c.PostLimitDays, &c.RolloverDate, &c.LastRolloverExecutedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResourceNotFound
		}
		logger.Error().Err(err).Msg("Error scanning points config row")
		return nil, fmt.Errorf("error retrieving points config: %w", err)
	}
	return c, nil
}

// Save upserts the singleton row.
func (r *PointsConfigRepository) Save(ctx context.Context, c *models.PointsConfig) error {
	c.UpdatedAt = time.Now()
	sql, args, err := r.sb.Insert("points_system_config").
		Columns("id", "profile_completion_points", "connection_points", "post_points",
			"post_limit_count", "post_limit_days", "rollover_date", "last_rollover_executed_at", "updated_at").
		Values(pointsConfigID, c.ProfileCompletionPoints, c.ConnectionPoints, c.PostPoints,
			c.PostLimitCount, c.PostLimitDays, c.RolloverDate, c.LastRolloverExecutedAt, c.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			profile_completion_points = EXCLUDED.profile_completion_points,
			connection_points = EXCLUDED.connection_points,
			post_points = EXCLUDED.post_points,
			post_limit_count = EXCLUDED.post_limit_count,
			post_limit_days = EXCLUDED.post_limit_days,
			rollover_date = EXCLUDED.rollover_date,
			last_rollover_executed_at = EXCLUDED.last_rollover_executed_at,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save points config query: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing save points config query")
		return fmt.Errorf("error saving points config: %w", err)
	}
	return nil
}

// CreateIfMissing inserts c unless the row already exists.
func (r *PointsConfigRepository) CreateIfMissing(ctx context.Context, c *models.PointsConfig) error {
	sql, args, err := r.sb.Insert("points_system_config").
		Columns("id", "profile_completion_points", "connection_points", "post_points",
			"post_limit_count", "post_limit_days", "updated_at").
		Values(pointsConfigID, c.ProfileCompletionPoints, c.ConnectionPoints, c.PostPoints,
			c.PostLimitCount, c.PostLimitDays, time.Now()).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create points config query: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing create points config query")
		return fmt.Errorf("error creating points config: %w", err)
	}
	return nil
}

// RolloverRepository stores per-year rollover windows.
type RolloverRepository struct {
	baseRepository
}

// NewRolloverRepository creates a new RolloverRepository
func NewRolloverRepository(pool *pgxpool.Pool) *RolloverRepository {
	return &RolloverRepository{baseRepository: newBase(pool)}
}

// GetByYear returns the window for year, or nil when none is configured.
func (r *RolloverRepository) GetByYear(ctx context.Context, year int) (*points.RolloverWindow, error) {
	sql, args, err := r.sb.Select("year", "start_date", "end_date", "has_executed", "executed_at").
		From("rollover_configs").
		Where(squirrel.Eq{"year": year}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get rollover config query: %w", err)
	}

	w := &points.RolloverWindow{}
	err = r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&w.Year, &w.StartDate, &w.EndDate, &w.HasExecuted, &w.ExecutedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Int("year", year).Msg("Error scanning rollover config row")
		return nil, fmt.Errorf("error retrieving rollover config: %w", err)
	}
	return w, nil
}

// Upsert stores the window for its year and clears the executed flag.
func (r *RolloverRepository) Upsert(ctx context.Context, w *points.RolloverWindow) error {
	sql, args, err := r.sb.Insert("rollover_configs").
		Columns("year", "start_date", "end_date", "has_executed", "executed_at").
		Values(w.Year, w.StartDate, w.EndDate, false, nil).
		Suffix(`ON CONFLICT (year) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			has_executed = FALSE,
			executed_at = NULL`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert rollover config query: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int("year", w.Year).Msg("Error executing upsert rollover config query")
		return fmt.Errorf("error saving rollover config: %w", err)
	}
	w.HasExecuted = false
	w.ExecutedAt = nil
	return nil
}

// MarkExecuted claims the year's rollover. It reports false when another
// caller already claimed it.
func (r *RolloverRepository) MarkExecuted(ctx context.Context, year int, at time.Time) (bool, error) {
	sql, args, err := r.sb.Update("rollover_configs").
		Set("has_executed", true).
		Set("executed_at", at).
		Where(squirrel.Eq{"year": year, "has_executed": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build mark rollover executed query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int("year", year).Msg("Error executing mark rollover executed query")
		return false, fmt.Errorf("error marking rollover executed: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
