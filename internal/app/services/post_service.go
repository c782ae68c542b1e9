package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/auth"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/pkg/helpers"
	"github.com/yigit/alumnet/internal/pkg/metrics"
	"github.com/yigit/alumnet/internal/pkg/websocket"
)

// PostService defines the interface for feed operations
type PostService interface {
	List(ctx context.Context, page, size int) (*dto.PostListResponse, error)
	Create(ctx context.Context, userID int64, req *dto.PostPayload) (*dto.PostResponse, error)
	Edit(ctx context.Context, userID, postID int64, req *dto.PostEditPayload) (*dto.PostResponse, error)
	Delete(ctx context.Context, actorID, postID int64) error
	React(ctx context.Context, userID, postID int64, emoji string) (*dto.PostResponse, error)

	AddComment(ctx context.Context, userID, postID int64, text string) (*dto.PostResponse, error)
	EditComment(ctx context.Context, userID, postID int64, commentID, text string) (*dto.PostResponse, error)
	DeleteComment(ctx context.Context, userID, postID int64, commentID string) (*dto.PostResponse, error)
	ReactComment(ctx context.Context, userID, postID int64, commentID, emoji string) (*dto.PostResponse, error)

	AddReply(ctx context.Context, userID, postID int64, commentID, text string) (*dto.PostResponse, error)
	EditReply(ctx context.Context, userID, postID int64, commentID, replyID, text string) (*dto.PostResponse, error)
	DeleteReply(ctx context.Context, userID, postID int64, commentID, replyID string) (*dto.PostResponse, error)
	ReactReply(ctx context.Context, userID, postID int64, commentID, replyID, emoji string) (*dto.PostResponse, error)
}

type postServiceImpl struct {
	posts         PostStore
	users         UserStore
	tx            Transactor
	authz         *auth.AuthorizationService
	points        PointsService
	notifications NotificationService
	publisher     Publisher
	media         MediaRemover
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(
	posts PostStore,
	users UserStore,
	tx Transactor,
	authz *auth.AuthorizationService,
	pointsSvc PointsService,
	notifications NotificationService,
	publisher Publisher,
	media MediaRemover,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PostService {
	return &postServiceImpl{
		posts:         posts,
		users:         users,
		tx:            tx,
		authz:         authz,
		points:        pointsSvc,
		notifications: notifications,
		publisher:     publisher,
		media:         media,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// renderPosts expands posts with their authors resolved in a single lookup.
func renderPosts(ctx context.Context, users UserStore, posts []*content.Post) ([]dto.PostResponse, error) {
	seen := map[int64]bool{}
	var ids []int64
	for _, p := range posts {
		for _, id := range p.AuthorIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	authors, err := authorSummaries(ctx, users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, dto.NewPostResponse(p, authors))
	}
	return out, nil
}

func (s *postServiceImpl) render(ctx context.Context, p *content.Post) (*dto.PostResponse, error) {
	out, err := renderPosts(ctx, s.users, []*content.Post{p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// mutate runs a versioned read-modify-write of one post.
func (s *postServiceImpl) mutate(ctx context.Context, postID int64, fn func(p *content.Post) error) (*content.Post, error) {
	var post *content.Post
	err := withRetry(ctx, s.tx, s.metrics, "post", func(ctx context.Context) error {
		p, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := s.posts.Update(ctx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	return post, err
}

// publish renders the post and pushes it under each event name.
func (s *postServiceImpl) publish(ctx context.Context, p *content.Post, events ...string) (*dto.PostResponse, error) {
	resp, err := s.render(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		s.publisher.Broadcast(event, resp)
	}
	return resp, nil
}

func (s *postServiceImpl) actorName(ctx context.Context, userID int64) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return u.Name
}

// List pages through the feed, newest first.
func (s *postServiceImpl) List(ctx context.Context, page, size int) (*dto.PostListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	posts, total, err := s.posts.List(ctx, 0, offset, limit)
	if err != nil {
		return nil, err
	}
	rendered, err := renderPosts(ctx, s.users, posts)
	if err != nil {
		return nil, err
	}
	return &dto.PostListResponse{
		Posts:      rendered,
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// Create publishes a new post and grants the post reward to alumni authors.
func (s *postServiceImpl) Create(ctx context.Context, userID int64, req *dto.PostPayload) (*dto.PostResponse, error) {
	images, err := ownedMediaList(s.media, userID, req.Images)
	if err != nil {
		return nil, err
	}
	var video *content.Media
	if req.Video != nil {
		v, err := ownedMedia(s.media, userID, "video", req.Video.URL)
		if err != nil {
			return nil, err
		}
		video = &v
	}
	p, err := content.NewPost(userID, req.Content, images, video, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}

	if granted, err := s.points.AwardPostCreation(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Int64("postID", p.ID).Msg("Failed to award post points")
	} else if granted > 0 {
		s.logger.Debug().Int64("userID", userID).Int("points", granted).Msg("Post points awarded")
	}

	s.logger.Info().Int64("userID", userID).Int64("postID", p.ID).Msg("Post created")
	return s.publish(ctx, p, websocket.EventPostCreated)
}

// Edit updates the caller's own post. Omitted fields are kept; media the
// post no longer references is removed from storage after the commit.
func (s *postServiceImpl) Edit(ctx context.Context, userID, postID int64, req *dto.PostEditPayload) (*dto.PostResponse, error) {
	actor, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var images *[]content.Media
	if req.Images != nil {
		resolved, err := ownedMediaList(s.media, userID, *req.Images)
		if err != nil {
			return nil, err
		}
		images = &resolved
	}
	var video *content.Media
	if req.Video != nil {
		v, err := ownedMedia(s.media, userID, "video", req.Video.URL)
		if err != nil {
			return nil, err
		}
		video = &v
	}

	var dropped []string
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		if err := s.authz.CanEditPost(actor, p); err != nil {
			return err
		}
		d, err := p.Edit(req.Content, images, video, s.now())
		dropped = d
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		removeMedia(ctx, s.media, p.UserID, dropped, s.metrics, s.logger)
	}
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// Delete removes a post and its media. The main admin may delete any post;
// the owner is told when that happens.
func (s *postServiceImpl) Delete(ctx context.Context, actorID, postID int64) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authz.CanDeletePost(actor, p); err != nil {
		return err
	}

	deleted, failed := removeMedia(ctx, s.media, p.UserID, p.MediaKeys(), s.metrics, s.logger)
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	if actorID != p.UserID {
		s.notifications.Notify(ctx, NotificationInput{
			SenderID:   actorID,
			ReceiverID: p.UserID,
			Type:       models.NotificationAdminNotice,
			Message:    "Your post has been removed by the Admin for violating community guidelines.",
		})
	}
	s.publisher.Broadcast(websocket.EventPostDeleted, dto.PostDeletedEvent{PostID: postID})

	s.logger.Info().
		Int64("actorID", actorID).
		Int64("postID", postID).
		Int("mediaDeleted", deleted).
		Int("mediaFailed", failed).
		Msg("Post deleted")
	return nil
}

// React toggles the caller's reaction on a post.
func (s *postServiceImpl) React(ctx context.Context, userID, postID int64, emoji string) (*dto.PostResponse, error) {
	var change content.ReactionChange
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		var err error
		change, err = p.React(userID, emoji)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !change.ToggledOff() {
		s.notifications.Notify(ctx, NotificationInput{
			SenderID:   userID,
			ReceiverID: p.UserID,
			Type:       models.NotificationPostLike,
			Message:    fmt.Sprintf("%s reacted %s to your post", s.actorName(ctx, userID), change.Current),
			Refs:       models.NotificationRefs{PostID: &p.ID},
		})
	}
	return s.publish(ctx, p, websocket.EventPostReacted)
}

// AddComment appends a comment and tells the post owner.
func (s *postServiceImpl) AddComment(ctx context.Context, userID, postID int64, text string) (*dto.PostResponse, error) {
	var commentID string
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		c, err := p.AddComment(userID, text, s.now())
		if err != nil {
			return err
		}
		commentID = c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, NotificationInput{
		SenderID:   userID,
		ReceiverID: p.UserID,
		Type:       models.NotificationPostComment,
		Message:    fmt.Sprintf("%s commented on your post", s.actorName(ctx, userID)),
		Refs:       models.NotificationRefs{PostID: &p.ID, CommentID: commentID},
	})
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// EditComment changes the text of the caller's own comment.
func (s *postServiceImpl) EditComment(ctx context.Context, userID, postID int64, commentID, text string) (*dto.PostResponse, error) {
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		c, err := p.Comment(commentID)
		if err != nil {
			return err
		}
		if err := s.authz.CanModifyComment(userID, c); err != nil {
			return err
		}
		_, err = p.EditComment(commentID, text, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// DeleteComment removes the caller's own comment with its replies.
func (s *postServiceImpl) DeleteComment(ctx context.Context, userID, postID int64, commentID string) (*dto.PostResponse, error) {
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		c, err := p.Comment(commentID)
		if err != nil {
			return err
		}
		if err := s.authz.CanModifyComment(userID, c); err != nil {
			return err
		}
		_, err = p.RemoveComment(commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// ReactComment toggles the caller's reaction on a comment.
func (s *postServiceImpl) ReactComment(ctx context.Context, userID, postID int64, commentID, emoji string) (*dto.PostResponse, error) {
	var change content.ReactionChange
	var author int64
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		c, err := p.Comment(commentID)
		if err != nil {
			return err
		}
		author = c.UserID
		change, err = c.React(userID, emoji)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !change.ToggledOff() {
		s.notifications.Notify(ctx, NotificationInput{
			SenderID:   userID,
			ReceiverID: author,
			Type:       models.NotificationCommentReaction,
			Message:    fmt.Sprintf("%s reacted %s to your comment", s.actorName(ctx, userID), change.Current),
			Refs:       models.NotificationRefs{PostID: &p.ID, CommentID: commentID},
		})
	}
	if c, err := p.Comment(commentID); err == nil {
		s.publisher.Broadcast(websocket.EventCommentReacted, dto.ReactionEvent{
			PostID:    p.ID,
			CommentID: commentID,
			Reactions: c.Reactions.Sanitized(),
		})
	}
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// AddReply appends a reply under a comment and tells the comment author.
func (s *postServiceImpl) AddReply(ctx context.Context, userID, postID int64, commentID, text string) (*dto.PostResponse, error) {
	var replyID string
	var author int64
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		c, err := p.Comment(commentID)
		if err != nil {
			return err
		}
		author = c.UserID
		r, err := c.AddReply(userID, text, s.now())
		if err != nil {
			return err
		}
		replyID = r.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, NotificationInput{
		SenderID:   userID,
		ReceiverID: author,
		Type:       models.NotificationCommentReply,
		Message:    fmt.Sprintf("%s replied to your comment", s.actorName(ctx, userID)),
		Refs:       models.NotificationRefs{PostID: &p.ID, CommentID: commentID, ReplyID: replyID},
	})
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

func (s *postServiceImpl) withReply(userID int64, commentID, replyID string, fn func(c *content.Comment) error) func(p *content.Post) error {
	return func(p *content.Post) error {
		c, err := p.Comment(commentID)
		if err != nil {
			return err
		}
		r, err := c.Reply(replyID)
		if err != nil {
			return err
		}
		if err := s.authz.CanModifyReply(userID, r); err != nil {
			return err
		}
		return fn(c)
	}
}

// EditReply changes the text of the caller's own reply.
func (s *postServiceImpl) EditReply(ctx context.Context, userID, postID int64, commentID, replyID, text string) (*dto.PostResponse, error) {
	p, err := s.mutate(ctx, postID, s.withReply(userID, commentID, replyID, func(c *content.Comment) error {
		_, err := c.EditReply(replyID, text, s.now())
		return err
	}))
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// DeleteReply removes the caller's own reply.
func (s *postServiceImpl) DeleteReply(ctx context.Context, userID, postID int64, commentID, replyID string) (*dto.PostResponse, error) {
	p, err := s.mutate(ctx, postID, s.withReply(userID, commentID, replyID, func(c *content.Comment) error {
		_, err := c.RemoveReply(replyID)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, p, websocket.EventPostUpdated)
}

// ReactReply toggles the caller's reaction on a reply.
func (s *postServiceImpl) ReactReply(ctx context.Context, userID, postID int64, commentID, replyID, emoji string) (*dto.PostResponse, error) {
	var change content.ReactionChange
	var author int64
	var reactions content.Reactions
	p, err := s.mutate(ctx, postID, func(p *content.Post) error {
		c, err := p.Comment(commentID)
		if err != nil {
			return err
		}
		r, err := c.Reply(replyID)
		if err != nil {
			return err
		}
		author = r.UserID
		if change, err = r.React(userID, emoji); err != nil {
			return err
		}
		reactions = r.Reactions
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !change.ToggledOff() {
		s.notifications.Notify(ctx, NotificationInput{
			SenderID:   userID,
			ReceiverID: author,
			Type:       models.NotificationReplyReaction,
			Message:    fmt.Sprintf("%s reacted %s to your reply", s.actorName(ctx, userID), change.Current),
			Refs:       models.NotificationRefs{PostID: &p.ID, CommentID: commentID, ReplyID: replyID},
		})
	}
	s.publisher.Broadcast(websocket.EventReplyReacted, dto.ReactionEvent{
		PostID:    p.ID,
		CommentID: commentID,
		ReplyID:   replyID,
		Reactions: reactions.Sanitized(),
	})
	return s.publish(ctx, p, websocket.EventPostUpdated)
}
