package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/metrics"
	"github.com/yigit/alumnet/internal/pkg/websocket"
)

// NotificationListLimit caps how many notifications a listing returns.
const NotificationListLimit = 50

// NotificationInput describes a notification to raise. A zero SenderID
// marks a system notification.
type NotificationInput struct {
	SenderID   int64
	ReceiverID int64
	Type       models.NotificationType
	Message    string
	Refs       models.NotificationRefs
}

// NotificationService defines the interface for notification operations
type NotificationService interface {
	Create(ctx context.Context, in NotificationInput) (*dto.NotificationResponse, error)
	Notify(ctx context.Context, in NotificationInput)
	List(ctx context.Context, receiverID int64) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, receiverID, notificationID int64) error
	MarkAllRead(ctx context.Context, receiverID int64) (int64, error)
}

type notificationServiceImpl struct {
	notifications NotificationStore
	users         UserStore
	publisher     Publisher
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifications NotificationStore,
	users UserStore,
	publisher Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Create persists the notification and pushes it to the receiver. Self
// notifications are suppressed and return nil without error.
func (s *notificationServiceImpl) Create(ctx context.Context, in NotificationInput) (*dto.NotificationResponse, error) {
	if in.ReceiverID <= 0 || in.SenderID == in.ReceiverID {
		return nil, nil
	}

	n := &models.Notification{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Type:       in.Type,
		Message:    in.Message,
		PostID:     in.Refs.PostID,
		CommentID:  in.Refs.CommentID,
		ReplyID:    in.Refs.ReplyID,
		CreatedAt:  s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	s.metrics.NotificationCreated(string(n.Type))

	var sender *dto.UserSummary
	if n.SenderID != 0 {
		if u, err := s.users.GetByID(ctx, n.SenderID); err == nil {
			summary := dto.NewUserSummary(u)
			sender = &summary
		} else {
			s.logger.Warn().Err(err).Int64("senderID", n.SenderID).Msg("Could not resolve notification sender")
		}
	}

	resp := dto.NewNotificationResponse(n, sender)
	s.publisher.SendToUser(n.ReceiverID, websocket.EventNewNotification, resp)
	return &resp, nil
}

// Notify is Create for side effects of other mutations: failures are logged
// and never reach the caller.
func (s *notificationServiceImpl) Notify(ctx context.Context, in NotificationInput) {
	if _, err := s.Create(ctx, in); err != nil {
		s.logger.Error().Err(err).
			Int64("senderID", in.SenderID).
			Int64("receiverID", in.ReceiverID).
			Str("type", string(in.Type)).
			Msg("Failed to create notification")
	}
}

// List returns the receiver's latest notifications with senders resolved.
func (s *notificationServiceImpl) List(ctx context.Context, receiverID int64) ([]dto.NotificationResponse, error) {
	list, err := s.notifications.ListForReceiver(ctx, receiverID, NotificationListLimit)
	if err != nil {
		return nil, err
	}

	var senderIDs []int64
	for _, n := range list {
		if n.SenderID != 0 {
			senderIDs = append(senderIDs, n.SenderID)
		}
	}
	senders, err := authorSummaries(ctx, s.users, senderIDs)
	if err != nil {
		return nil, err
	}

	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		var sender *dto.UserSummary
		if summary, ok := senders[n.SenderID]; ok {
			sender = &summary
		}
		out = append(out, dto.NewNotificationResponse(n, sender))
	}
	return out, nil
}

// MarkRead marks one of the receiver's notifications as read.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, receiverID, notificationID int64) error {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.ReceiverID != receiverID {
		return apperrors.NewForbiddenError("this notification belongs to another user")
	}
	if n.IsRead {
		return nil
	}
	return s.notifications.MarkRead(ctx, notificationID)
}

// MarkAllRead marks every unread notification of the receiver.
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, receiverID int64) (int64, error) {
	return s.notifications.MarkAllRead(ctx, receiverID)
}
