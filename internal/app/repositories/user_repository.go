package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/dberrors"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

var userColumns = []string{
	"id", "name", "email", "password", "role", "enrollment_number", "employee_id",
	"is_admin", "is_main_admin", "approved", "profile",
	"connections", "pending_requests", "sent_requests",
	"points", "last_year_points", "post_point_log", "profile_completion_awarded",
	"visit_total", "visit_today", "visit_day",
	"version", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	baseRepository
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{baseRepository: newBase(pool)}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.EnrollmentNumber, &u.EmployeeID,
		&u.IsAdmin, &u.IsMainAdmin, &u.Approved, &u.Profile,
		&u.Connections, &u.PendingRequests, &u.SentRequests,
		&u.Points, &u.LastYearPoints, &u.PostPointLog, &u.ProfileCompletionAwarded,
		&u.VisitStats.TotalVisits, &u.VisitStats.TodayVisits, &u.VisitStats.VisitDay,
		&u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user and fills in its id, version and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role", "enrollment_number", "employee_id",
			"is_admin", "is_main_admin", "approved", "profile", "points",
			"version", "created_at", "updated_at").
		Values(u.Name, strings.ToLower(u.Email), u.Password, u.Role, u.EnrollmentNumber, u.EmployeeID,
			u.IsAdmin, u.IsMainAdmin, u.Approved, u.Profile, u.Points,
			1, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&u.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", u.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}

	u.Email = strings.ToLower(u.Email)
	u.Version = 1
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u, err := scanUser(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetMainAdmin retrieves the distinguished main admin account.
func (r *UserRepository) GetMainAdmin(ctx context.Context) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"is_main_admin": true})
}

// Update writes every mutable column of u if its version is unchanged since
// it was read, then bumps u.Version.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	now := time.Now()
	sql, args, err := r.sb.Update("users").
		SetMap(map[string]interface{}{
			"name":                       u.Name,
			"email":                      strings.ToLower(u.Email),
			"password":                   u.Password,
			"role":                       u.Role,
			"enrollment_number":          u.EnrollmentNumber,
			"employee_id":                u.EmployeeID,
			"is_admin":                   u.IsAdmin,
			"is_main_admin":              u.IsMainAdmin,
			"approved":                   u.Approved,
			"profile":                    u.Profile,
			"connections":                emptyIfNil(u.Connections),
			"pending_requests":           emptyIfNil(u.PendingRequests),
			"sent_requests":              emptyIfNil(u.SentRequests),
			"points":                     u.Points,
			"last_year_points":           u.LastYearPoints,
			"post_point_log":             emptyIfNil(u.PostPointLog),
			"profile_completion_awarded": u.ProfileCompletionAwarded,
			"visit_total":                u.VisitStats.TotalVisits,
			"visit_today":                u.VisitStats.TodayVisits,
			"visit_day":                  u.VisitStats.VisitDay,
			"version":                    squirrel.Expr("version + 1"),
			"updated_at":                 now,
		}).
		Where(squirrel.Eq{"id": u.ID, "version": u.Version}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Int64("userID", u.ID).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Int64("userID", u.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrVersionConflict
	}

	u.Version++
	u.UpdatedAt = now
	return nil
}

// Delete removes a user. Posts, notifications, tokens and visits cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error building delete user SQL")
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing delete user query")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func ilike(expr, term string) squirrel.Sqlizer {
	return squirrel.Expr(expr+" ILIKE ?", "%"+escapeLike(term)+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
}

func userFilter(q models.UserQuery) squirrel.And {
	where := squirrel.And{}
	if len(q.Roles) > 0 {
		roles := make([]string, 0, len(q.Roles))
		for _, role := range q.Roles {
			roles = append(roles, string(role))
		}
		where = append(where, squirrel.Eq{"role": roles})
	}
	if q.Approved != nil {
		where = append(where, squirrel.Eq{"approved": *q.Approved})
	}
	if q.IsMainAdmin != nil {
		where = append(where, squirrel.Eq{"is_main_admin": *q.IsMainAdmin})
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, squirrel.Or{
			ilike("name", s),
			ilike("email", s),
			ilike("enrollment_number", s),
			ilike("profile->>'course'", s),
		})
	}
	if s := strings.TrimSpace(q.Exact); s != "" {
		where = append(where, squirrel.Or{
			squirrel.Expr("LOWER(name) = LOWER(?)", s),
			squirrel.Expr("LOWER(enrollment_number) = LOWER(?)", s),
		})
	}
	if q.Course != "" {
		where = append(where, ilike("profile->>'course'", q.Course))
	}
	if q.Year != "" {
		where = append(where, squirrel.Expr("profile->>'year' = ?", strings.TrimSpace(q.Year)))
	}
	if q.Industry != "" {
		where = append(where, ilike("profile->'workProfile'->>'industry'", q.Industry))
	}
	if len(q.IDs) > 0 {
		where = append(where, squirrel.Eq{"id": q.IDs})
	}
	if len(q.ExcludeIDs) > 0 {
		where = append(where, squirrel.NotEq{"id": q.ExcludeIDs})
	}
	if q.MinTotal != nil {
		where = append(where, squirrel.Expr("COALESCE((points->>'total')::int, 0) >= ?", *q.MinTotal))
	}
	if q.HasLastYear {
		where = append(where, squirrel.Expr("last_year_points IS NOT NULL"))
	}
	return where
}

func userOrder(sort models.UserSort) []string {
	switch sort {
	case models.SortByNewest:
		return []string{"created_at DESC", "id DESC"}
	case models.SortByTotalPoints:
		return []string{"COALESCE((points->>'total')::int, 0) DESC", "name ASC"}
	case models.SortByLastYearPoints:
		return []string{"COALESCE((last_year_points->>'total')::int, 0) DESC", "name ASC"}
	case models.SortByConnectionCount:
		return []string{"cardinality(connections) DESC", "name ASC"}
	default:
		return []string{"name ASC", "id ASC"}
	}
}

// Find lists users matching q.
func (r *UserRepository) Find(ctx context.Context, q models.UserQuery) ([]*models.User, error) {
	if q.IDs != nil && len(q.IDs) == 0 {
		return []*models.User{}, nil
	}

	builder := r.sb.Select(userColumns...).From("users").
		Where(userFilter(q)).
		OrderBy(userOrder(q.SortBy)...)
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find users SQL")
		return nil, fmt.Errorf("failed to build find users query: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing find users query")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning user row")
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ListIDs returns the ids of users matching q, ordered by id.
func (r *UserRepository) ListIDs(ctx context.Context, q models.UserQuery) ([]int64, error) {
	sql, args, err := r.sb.Select("id").From("users").Where(userFilter(q)).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list user ids query: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list user ids query")
		return nil, fmt.Errorf("error listing user ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error collecting user ids: %w", err)
	}
	return ids, nil
}
