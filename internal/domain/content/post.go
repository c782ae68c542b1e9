// Package content holds the post aggregate: a post with its media, reaction
// map and nested comments, each comment with its own nested replies.
package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// Media references an object in external storage.
type Media struct {
	URL string `json:"url"`
	// Key identifies the stored object for cleanup; empty for external links.
	Key string `json:"key,omitempty"`
}

// Post is the aggregate root.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	Images    []Media   `json:"images"`
	Video     *Media    `json:"video,omitempty"`
	Reactions Reactions `json:"reactions"`
	Comments  []Comment `json:"comments"`
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment lives inside a post; its id is scoped to the post.
type Comment struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"userId"`
	Text      string     `json:"text"`
	Reactions Reactions  `json:"reactions"`
	Replies   []Reply    `json:"replies"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// Reply lives inside a comment and points back at it.
type Reply struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parentId"`
	UserID    int64      `json:"userId"`
	Text      string     `json:"text"`
	Reactions Reactions  `json:"reactions"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

func cleanMedia(images []Media, video *Media) ([]Media, *Media) {
	kept := make([]Media, 0, len(images))
	for _, m := range images {
		if strings.TrimSpace(m.URL) != "" {
			kept = append(kept, m)
		}
	}
	if video != nil && strings.TrimSpace(video.URL) == "" {
		video = nil
	}
	return kept, video
}

// ValidatePayload rejects a post with neither text nor media.
func ValidatePayload(text string, images []Media, video *Media) error {
	images, video = cleanMedia(images, video)
	if strings.TrimSpace(text) == "" && len(images) == 0 && video == nil {
		return apperrors.ErrEmptyPost
	}
	return nil
}

// NewPost builds a validated post for userID.
func NewPost(userID int64, text string, images []Media, video *Media, now time.Time) (*Post, error) {
	if err := ValidatePayload(text, images, video); err != nil {
		return nil, err
	}
	images, video = cleanMedia(images, video)
	return &Post{
		UserID:    userID,
		Content:   strings.TrimSpace(text),
		Images:    images,
		Video:     video,
		Reactions: Reactions{},
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Edit applies a partial update: nil fields keep their current value and a
// video with an empty URL removes the video. The result must still be a
// valid post. It returns the media refs the post no longer references.
func (p *Post) Edit(text *string, images *[]Media, video *Media, now time.Time) ([]string, error) {
	nextText, nextImages, nextVideo := p.Content, p.Images, p.Video
	if text != nil {
		nextText = *text
	}
	if images != nil {
		nextImages = *images
	}
	if video != nil {
		v := *video
		nextVideo = &v
	}
	if err := ValidatePayload(nextText, nextImages, nextVideo); err != nil {
		return nil, err
	}

	before := p.MediaKeys()
	p.Content = strings.TrimSpace(nextText)
	p.Images, p.Video = cleanMedia(nextImages, nextVideo)
	p.UpdatedAt = now

	kept := make(map[string]bool)
	for _, ref := range p.MediaKeys() {
		kept[ref] = true
	}
	var dropped []string
	for _, ref := range before {
		if !kept[ref] {
			dropped = append(dropped, ref)
		}
	}
	return dropped, nil
}

// React toggles userID's reaction on the post itself.
func (p *Post) React(userID int64, emoji string) (ReactionChange, error) {
	next, change, err := p.Reactions.React(userID, emoji)
	if err != nil {
		return change, err
	}
	p.Reactions = next
	return change, nil
}

// Comment finds a comment by id.
func (p *Post) Comment(commentID string) (*Comment, error) {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i], nil
		}
	}
	return nil, apperrors.ErrCommentNotFound
}

func requireText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewValidationError("text", "text is required")
	}
	return text, nil
}

// AddComment appends a new comment and returns it.
func (p *Post) AddComment(userID int64, text string, now time.Time) (*Comment, error) {
	text, err := requireText(text)
	if err != nil {
		return nil, err
	}
	p.Comments = append(p.Comments, Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Reactions: Reactions{},
		Replies:   []Reply{},
		CreatedAt: now,
	})
	return &p.Comments[len(p.Comments)-1], nil
}

// EditComment changes a comment's text and stamps the edit time.
func (p *Post) EditComment(commentID, text string, now time.Time) (*Comment, error) {
	text, err := requireText(text)
	if err != nil {
		return nil, err
	}
	c, err := p.Comment(commentID)
	if err != nil {
		return nil, err
	}
	c.Text = text
	c.EditedAt = &now
	return c, nil
}

// RemoveComment deletes a comment together with all of its replies.
func (p *Post) RemoveComment(commentID string) (Comment, error) {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			removed := p.Comments[i]
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return removed, nil
		}
	}
	return Comment{}, apperrors.ErrCommentNotFound
}

// React toggles userID's reaction on the comment.
func (c *Comment) React(userID int64, emoji string) (ReactionChange, error) {
	next, change, err := c.Reactions.React(userID, emoji)
	if err != nil {
		return change, err
	}
	c.Reactions = next
	return change, nil
}

// Reply finds a reply by id within the comment.
func (c *Comment) Reply(replyID string) (*Reply, error) {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i], nil
		}
	}
	return nil, apperrors.ErrReplyNotFound
}

// AddReply appends a reply under the comment.
func (c *Comment) AddReply(userID int64, text string, now time.Time) (*Reply, error) {
	text, err := requireText(text)
	if err != nil {
		return nil, err
	}
	c.Replies = append(c.Replies, Reply{
		ID:        uuid.NewString(),
		ParentID:  c.ID,
		UserID:    userID,
		Text:      text,
		Reactions: Reactions{},
		CreatedAt: now,
	})
	return &c.Replies[len(c.Replies)-1], nil
}

// EditReply changes a reply's text and stamps the edit time.
func (c *Comment) EditReply(replyID, text string, now time.Time) (*Reply, error) {
	text, err := requireText(text)
	if err != nil {
		return nil, err
	}
	r, err := c.Reply(replyID)
	if err != nil {
		return nil, err
	}
	r.Text = text
	r.EditedAt = &now
	return r, nil
}

// RemoveReply deletes a reply from the comment.
func (c *Comment) RemoveReply(replyID string) (Reply, error) {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			removed := c.Replies[i]
			c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
			return removed, nil
		}
	}
	return Reply{}, apperrors.ErrReplyNotFound
}

// React toggles userID's reaction on the reply.
func (r *Reply) React(userID int64, emoji string) (ReactionChange, error) {
	next, change, err := r.Reactions.React(userID, emoji)
	if err != nil {
		return change, err
	}
	r.Reactions = next
	return change, nil
}

// MediaKeys lists the storage keys referenced by the post, falling back to the
// URL when an object was stored without a key.
func (p *Post) MediaKeys() []string {
	var keys []string
	add := func(m Media) {
		switch {
		case m.Key != "":
			keys = append(keys, m.Key)
		case m.URL != "":
			keys = append(keys, m.URL)
		}
	}
	for _, img := range p.Images {
		add(img)
	}
	if p.Video != nil {
		add(*p.Video)
	}
	return keys
}

// AuthorIDs returns every distinct user id that authored the post, a comment
// or a reply, for resolving display info in one lookup.
func (p *Post) AuthorIDs() []int64 {
	seen := map[int64]bool{}
	var ids []int64
	add := func(id int64) {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(p.UserID)
	for _, c := range p.Comments {
		add(c.UserID)
		for _, r := range c.Replies {
			add(r.UserID)
		}
	}
	return ids
}
