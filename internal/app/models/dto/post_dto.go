package dto

import (
	"time"

	"github.com/yigit/alumnet/internal/domain/content"
)

// MediaInput references an uploaded image or video by its URL. Storage
// keys are derived server-side.
type MediaInput struct {
	URL string `json:"url" binding:"max=2048" example:"https://cdn.example.com/posts/1/a.png"`
}

// PostPayload is the body of post create.
type PostPayload struct {
	Content string       `json:"content" binding:"max=5000" example:"hello"`
	Images  []MediaInput `json:"images" binding:"omitempty,max=10,dive"`
	Video   *MediaInput  `json:"video"`
}

// PostEditPayload is the body of post edit. Omitted fields keep their
// current value; a video with an empty url removes the video.
type PostEditPayload struct {
	Content *string       `json:"content" binding:"omitempty,max=5000" example:"hello"`
	Images  *[]MediaInput `json:"images" binding:"omitempty,max=10,dive"`
	Video   *MediaInput   `json:"video"`
}

// ReactRequest carries the emoji to toggle.
type ReactRequest struct {
	Emoji string `json:"emoji" binding:"required,emoji" example:"👍"`
}

// TextRequest is the body of comment and reply create and edit.
type TextRequest struct {
	Text string `json:"text" binding:"required,max=2000" example:"nice"`
}

// ReplyResponse is a reply with its author resolved.
type ReplyResponse struct {
	ID            string            `json:"id"`
	ParentID      string            `json:"parentId"`
	Author        UserSummary       `json:"author"`
	Text          string            `json:"text"`
	Reactions     content.Reactions `json:"reactions"`
	ReactionCount int               `json:"reactionCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	EditedAt      *time.Time        `json:"editedAt,omitempty"`
}

// CommentResponse is a comment with its author and replies resolved.
type CommentResponse struct {
	ID            string            `json:"id"`
	Author        UserSummary       `json:"author"`
	Text          string            `json:"text"`
	Reactions     content.Reactions `json:"reactions"`
	ReactionCount int               `json:"reactionCount"`
	Replies       []ReplyResponse   `json:"replies"`
	CreatedAt     time.Time         `json:"createdAt"`
	EditedAt      *time.Time        `json:"editedAt,omitempty"`
}

// PostResponse is the fully expanded post aggregate.
type PostResponse struct {
	ID            int64             `json:"id"`
	Author        UserSummary       `json:"author"`
	Content       string            `json:"content"`
	Images        []content.Media   `json:"images"`
	Video         *content.Media    `json:"video,omitempty"`
	Reactions     content.Reactions `json:"reactions"`
	ReactionCount int               `json:"reactionCount"`
	Comments      []CommentResponse `json:"comments"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewPostResponse expands p using authors for display identities. Authors
// missing from the map are rendered with their id only.
func NewPostResponse(p *content.Post, authors map[int64]UserSummary) PostResponse {
	author := func(id int64) UserSummary {
		if s, ok := authors[id]; ok {
			return s
		}
		return UserSummary{ID: id}
	}

	resp := PostResponse{
		ID:            p.ID,
		Author:        author(p.UserID),
		Content:       p.Content,
		Images:        p.Images,
		Video:         p.Video,
		Reactions:     p.Reactions.Sanitized(),
		ReactionCount: p.Reactions.Count(),
		Comments:      make([]CommentResponse, 0, len(p.Comments)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []content.Media{}
	}
	for _, c := range p.Comments {
		cr := CommentResponse{
			ID:            c.ID,
			Author:        author(c.UserID),
			Text:          c.Text,
			Reactions:     c.Reactions.Sanitized(),
			ReactionCount: c.Reactions.Count(),
			Replies:       make([]ReplyResponse, 0, len(c.Replies)),
			CreatedAt:     c.CreatedAt,
			EditedAt:      c.EditedAt,
		}
		for _, r := range c.Replies {
			cr.Replies = append(cr.Replies, ReplyResponse{
				ID:            r.ID,
				ParentID:      r.ParentID,
				Author:        author(r.UserID),
				Text:          r.Text,
				Reactions:     r.Reactions.Sanitized(),
				ReactionCount: r.Reactions.Count(),
				CreatedAt:     r.CreatedAt,
				EditedAt:      r.EditedAt,
			})
		}
		resp.Comments = append(resp.Comments, cr)
	}
	return resp
}

// PostListResponse is one page of the feed.
type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination PaginationInfo `json:"pagination"`
}

// PostDeletedEvent is pushed when a post is removed.
type PostDeletedEvent struct {
	PostID int64 `json:"postId"`
}

// ReactionEvent is pushed after a reaction changes on a comment or reply.
type ReactionEvent struct {
	PostID    int64             `json:"postId"`
	CommentID string            `json:"commentId,omitempty"`
	ReplyID   string            `json:"replyId,omitempty"`
	Reactions content.Reactions `json:"reactions"`
}
