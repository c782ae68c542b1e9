package models

import "time"

// NotificationType enumerates what a notification is about.
type NotificationType string

const (
	NotificationConnectRequest  NotificationType = "connect_request"
	NotificationConnectAccept   NotificationType = "connect_accept"
	NotificationPostLike        NotificationType = "post_like"
	NotificationPostComment     NotificationType = "post_comment"
	NotificationCommentLike     NotificationType = "comment_like"
	NotificationCommentReply    NotificationType = "comment_reply"
	NotificationReplyLike       NotificationType = "reply_like"
	NotificationCommentReaction NotificationType = "comment_reaction"
	NotificationReplyReaction   NotificationType = "reply_reaction"
	NotificationAdminNotice     NotificationType = "admin_notice"
	NotificationPointsAwarded   NotificationType = "points_awarded"
)

// Notification defines the model based on the 'notifications' table
type Notification struct {
	ID         int64            `json:"id" db:"id"`
	SenderID   int64            `json:"senderId,omitempty" db:"sender_id"`
	ReceiverID int64            `json:"receiverId" db:"receiver_id"`
	Type       NotificationType `json:"type" db:"type"`
	Message    string           `json:"message" db:"message"`
	PostID     *int64           `json:"postId,omitempty" db:"post_id"`
	CommentID  string           `json:"commentId,omitempty" db:"comment_id"`
	ReplyID    string           `json:"replyId,omitempty" db:"reply_id"`
	IsRead     bool             `json:"isRead" db:"is_read"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
}

// NotificationRefs points a notification at the content it concerns.
type NotificationRefs struct {
	PostID    *int64
	CommentID string
	ReplyID   string
}
