package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

// VisitRepository tracks when each visitor last viewed a profile.
type VisitRepository struct {
	baseRepository
}

// NewVisitRepository creates a new VisitRepository
func NewVisitRepository(pool *pgxpool.Pool) *VisitRepository {
	return &VisitRepository{baseRepository: newBase(pool)}
}

// LastVisit returns the visitor's previous view of the profile, or nil.
func (r *VisitRepository) LastVisit(ctx context.Context, profileID, visitorID int64) (*time.Time, error) {
	sql, args, err := r.sb.Select("last_visit").From("profile_visits").
		Where(squirrel.Eq{"profile_id": profileID, "visitor_id": visitorID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build last visit query: %w", err)
	}

	var at time.Time
	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("profileID", profileID).Int64("visitorID", visitorID).Msg("Error reading profile visit")
		return nil, fmt.Errorf("error reading profile visit: %w", err)
	}
	return &at, nil
}

// Touch records a view at the given time.
func (r *VisitRepository) Touch(ctx context.Context, profileID, visitorID int64, at time.Time) error {
	sql, args, err := r.sb.Insert("profile_visits").
		Columns("profile_id", "visitor_id", "last_visit").
		Values(profileID, visitorID, at).
		Suffix("ON CONFLICT (profile_id, visitor_id) DO UPDATE SET last_visit = EXCLUDED.last_visit").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build touch visit query: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("profileID", profileID).Int64("visitorID", visitorID).Msg("Error recording profile visit")
		return fmt.Errorf("error recording profile visit: %w", err)
	}
	return nil
}
