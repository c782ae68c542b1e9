package content

import (
	"sort"
	"time"
)

// ActivityType names the kind of trace a user left on a post.
type ActivityType string

const (
	ActivityPostReaction    ActivityType = "post_reaction"
	ActivityComment         ActivityType = "comment"
	ActivityCommentReaction ActivityType = "comment_reaction"
	ActivityReply           ActivityType = "reply"
	ActivityReplyReaction   ActivityType = "reply_reaction"
)

// Activity is one entry of a user's activity feed.
type Activity struct {
	Type      ActivityType `json:"type"`
	PostID    int64        `json:"postId"`
	CommentID string       `json:"commentId,omitempty"`
	ReplyID   string       `json:"replyId,omitempty"`
	Emoji     string       `json:"emoji,omitempty"`
	Text      string       `json:"text,omitempty"`
	At        time.Time    `json:"at"`
}

// CollectActivity gathers the reactions, comments and replies userID made
// across posts, newest first. Reactions carry no timestamp of their own and
// are dated by the entity they were placed on.
func CollectActivity(posts []*Post, userID int64) []Activity {
	var out []Activity
	for _, p := range posts {
		if emoji, ok := p.Reactions.UserReaction(userID); ok {
			out = append(out, Activity{Type: ActivityPostReaction, PostID: p.ID, Emoji: emoji, At: p.CreatedAt})
		}
		for _, c := range p.Comments {
			if c.UserID == userID {
				out = append(out, Activity{Type: ActivityComment, PostID: p.ID, CommentID: c.ID, Text: c.Text, At: c.CreatedAt})
			}
			if emoji, ok := c.Reactions.UserReaction(userID); ok {
				out = append(out, Activity{Type: ActivityCommentReaction, PostID: p.ID, CommentID: c.ID, Emoji: emoji, At: c.CreatedAt})
			}
			for _, r := range c.Replies {
				if r.UserID == userID {
					out = append(out, Activity{Type: ActivityReply, PostID: p.ID, CommentID: c.ID, ReplyID: r.ID, Text: r.Text, At: r.CreatedAt})
				}
				if emoji, ok := r.Reactions.UserReaction(userID); ok {
					out = append(out, Activity{Type: ActivityReplyReaction, PostID: p.ID, CommentID: c.ID, ReplyID: r.ID, Emoji: emoji, At: r.CreatedAt})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}
