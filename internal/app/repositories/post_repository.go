package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/dberrors"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

var postColumns = []string{
	"id", "user_id", "content", "images", "video", "reactions", "comments",
	"version", "created_at", "updated_at",
}

// PostRepository stores post aggregates. Comments, replies and every
// reaction map live in JSONB columns of the post row.
type PostRepository struct {
	baseRepository
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{baseRepository: newBase(pool)}
}

func scanPost(row pgx.Row) (*content.Post, error) {
	p := &content.Post{}
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Images, &p.Video, &p.Reactions, &p.Comments,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a post and fills in its id and version.
func (r *PostRepository) Create(ctx context.Context, p *content.Post) error {
	sql, args, err := r.sb.Insert("posts").
		Columns("user_id", "content", "images", "video", "reactions", "comments", "version", "created_at", "updated_at").
		Values(p.UserID, p.Content, emptyIfNil(p.Images), p.Video, p.Reactions.Sanitized(), emptyIfNil(p.Comments),
			1, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create post SQL")
		return fmt.Errorf("failed to build create post query: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&p.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", p.UserID).Msg("Error executing create post query")
		return fmt.Errorf("error creating post: %w", err)
	}
	p.Version = 1
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*content.Post, error) {
	sql, args, err := r.sb.Select(postColumns...).From("posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get post SQL")
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}

	p, err := scanPost(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		logger.Error().Err(err).Int64("postID", id).Msg("Error scanning post row")
		return nil, fmt.Errorf("error retrieving post: %w", err)
	}
	return p, nil
}

// Update writes the aggregate back if its version is unchanged. Reaction
// maps are sanitized by their JSON encoding on the way out.
func (r *PostRepository) Update(ctx context.Context, p *content.Post) error {
	now := time.Now()
	sql, args, err := r.sb.Update("posts").
		Set("content", p.Content).
		Set("images", emptyIfNil(p.Images)).
		Set("video", p.Video).
		Set("reactions", p.Reactions).
		Set("comments", emptyIfNil(p.Comments)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Int64("postID", p.ID).Msg("Error building update post SQL")
		return fmt.Errorf("failed to build update post query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("postID", p.ID).Msg("Error executing update post query")
		return fmt.Errorf("error updating post: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrVersionConflict
	}

	p.Version++
	p.UpdatedAt = now
	return nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete post query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("postID", id).Msg("Error executing delete post query")
		return fmt.Errorf("error deleting post: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// DeleteByUser removes every post authored by userID.
func (r *PostRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	sql, args, err := r.sb.Delete("posts").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete user posts query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing delete user posts query")
		return 0, fmt.Errorf("error deleting user posts: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PostRepository) query(ctx context.Context, builder squirrel.SelectBuilder) ([]*content.Post, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list posts SQL")
		return nil, fmt.Errorf("failed to build list posts query: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list posts query")
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*content.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning post row")
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) count(ctx context.Context, where squirrel.Sqlizer) (int64, error) {
	builder := r.sb.Select("COUNT(*)").From("posts")
	if where != nil {
		builder = builder.Where(where)
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count posts query: %w", err)
	}

	var total int64
	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting posts")
		return 0, fmt.Errorf("error counting posts: %w", err)
	}
	return total, nil
}

// List returns one page of posts, newest first, with the total count.
// A zero authorID lists every author.
func (r *PostRepository) List(ctx context.Context, authorID int64, offset uint64, limit int) ([]*content.Post, int64, error) {
	var where squirrel.Sqlizer
	if authorID > 0 {
		where = squirrel.Eq{"user_id": authorID}
	}

	total, err := r.count(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	builder := r.sb.Select(postColumns...).From("posts").
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).
		Limit(uint64(limit))
	if where != nil {
		builder = builder.Where(where)
	}

	posts, err := r.query(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListAllByUser returns every post authored by userID.
func (r *PostRepository) ListAllByUser(ctx context.Context, userID int64) ([]*content.Post, error) {
	return r.query(ctx, r.sb.Select(postColumns...).From("posts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC"))
}

// ListInvolving returns posts where userID appears anywhere in the reaction
// maps, comments or replies. Author ids and reaction members are the only
// numbers stored in those documents.
func (r *PostRepository) ListInvolving(ctx context.Context, userID int64) ([]*content.Post, error) {
	return r.query(ctx, r.sb.Select(postColumns...).From("posts").
		Where(squirrel.Expr(
			"jsonb_path_exists(jsonb_build_array(reactions, comments), 'strict $.** ? (@ == $uid)', jsonb_build_object('uid', ?::bigint))",
			userID,
		)).
		OrderBy("created_at DESC"))
}
