package dto

import (
	"time"

	"github.com/yigit/alumnet/internal/app/models"
)

// NotificationResponse is a notification with its sender resolved.
// Sender is nil for system notifications.
type NotificationResponse struct {
	ID        int64                   `json:"id"`
	Sender    *UserSummary            `json:"sender,omitempty"`
	Type      models.NotificationType `json:"type" example:"connect_request"`
	Message   string                  `json:"message"`
	PostID    *int64                  `json:"postId,omitempty"`
	CommentID string                  `json:"commentId,omitempty"`
	ReplyID   string                  `json:"replyId,omitempty"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NewNotificationResponse renders n with an optional sender.
func NewNotificationResponse(n *models.Notification, sender *UserSummary) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Sender:    sender,
		Type:      n.Type,
		Message:   n.Message,
		PostID:    n.PostID,
		CommentID: n.CommentID,
		ReplyID:   n.ReplyID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
