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
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

var notificationColumns = []string{
	"id", "COALESCE(sender_id, 0)", "receiver_id", "type", "message", "post_id", "comment_id", "reply_id", "is_read", "created_at",
}

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	baseRepository
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{baseRepository: newBase(pool)}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(&n.ID, &n.SenderID, &n.ReceiverID, &n.Type, &n.Message, &n.PostID, &n.CommentID, &n.ReplyID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Create stores a notification. A zero sender is stored as NULL.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	var sender interface{}
	if n.SenderID != 0 {
		sender = n.SenderID
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	sql, args, err := r.sb.Insert("notifications").
		Columns("sender_id", "receiver_id", "type", "message", "post_id", "comment_id", "reply_id", "is_read", "created_at").
		Values(sender, n.ReceiverID, n.Type, n.Message, n.PostID, n.CommentID, n.ReplyID, false, n.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create notification SQL")
		return fmt.Errorf("failed to build create notification query: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&n.ID); err != nil {
		logger.Error().Err(err).Int64("receiverID", n.ReceiverID).Str("type", string(n.Type)).Msg("Error executing create notification query")
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := r.sb.Select(notificationColumns...).From("notifications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get notification query: %w", err)
	}

	n, err := scanNotification(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error scanning notification row")
		return nil, fmt.Errorf("error retrieving notification: %w", err)
	}
	return n, nil
}

// ListForReceiver returns the receiver's latest notifications, newest first.
func (r *NotificationRepository) ListForReceiver(ctx context.Context, receiverID int64, limit int) ([]*models.Notification, error) {
	sql, args, err := r.sb.Select(notificationColumns...).From("notifications").
		Where(squirrel.Eq{"receiver_id": receiverID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("receiverID", receiverID).Msg("Error executing list notifications query")
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead sets the read flag. Marking an already read notification is not an error.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "is_read": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark read query: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error executing mark read query")
		return fmt.Errorf("error marking notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the receiver and reports how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiverID int64) (int64, error) {
	sql, args, err := r.sb.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"receiver_id": receiverID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark all read query: %w", err)
	}

	cmdTag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("receiverID", receiverID).Msg("Error executing mark all read query")
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
