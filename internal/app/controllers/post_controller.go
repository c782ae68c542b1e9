package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
	"github.com/yigit/alumnet/internal/pkg/helpers"
)

// PostController handles the feed, comments, replies and reactions.
// Every route addresses the post as :id; comment and reply routes add
// :commentId and :replyId.
type PostController struct {
	postService services.PostService
}

// NewPostController creates a new PostController
func NewPostController(postService services.PostService) *PostController {
	return &PostController{postService: postService}
}

type postTarget struct {
	userID    int64
	postID    int64
	commentID string
	replyID   string
}

// target resolves the caller and the addressed post, comment and reply.
func target(ctx *gin.Context) (postTarget, bool) {
	userID, found := callerID(ctx)
	if !found {
		return postTarget{}, false
	}
	postID, valid := parseIDParam(ctx, "id")
	if !valid {
		return postTarget{}, false
	}
	return postTarget{
		userID:    userID,
		postID:    postID,
		commentID: ctx.Param("commentId"),
		replyID:   ctx.Param("replyId"),
	}, true
}

func respondPost(ctx *gin.Context, status int, p *dto.PostResponse, err error) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(status, dto.APIResponse{Data: p})
}

// List godoc
// @Summary List posts
// @Description Newest first, with authors, comments and replies resolved
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse}
// @Router /posts [get]
func (c *PostController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.postService.List(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Create godoc
// @Summary Create a post
// @Description A post needs text or at least one media reference. Alumni earn post points within the configured rate limit.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PostPayload true "Post content"
// @Success 201 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /posts [post]
func (c *PostController) Create(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	var req dto.PostPayload
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.Create(ctx.Request.Context(), userID, &req)
	respondPost(ctx, http.StatusCreated, p, err)
}

// Edit godoc
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Description Omitted fields keep their current value. Media dropped by the edit is removed from storage.
// @Param request body dto.PostEditPayload true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse
// @Router /posts/{id} [put]
func (c *PostController) Edit(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.PostEditPayload
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.Edit(ctx.Request.Context(), t.userID, t.postID, &req)
	respondPost(ctx, http.StatusOK, p, err)
}

// Delete godoc
// @Summary Delete a post
// @Description The author or an admin may delete a post. Its media is removed from storage. The author is notified when an admin removes it.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /posts/{id} [delete]
func (c *PostController) Delete(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	if err := c.postService.Delete(ctx.Request.Context(), t.userID, t.postID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Post deleted successfully")
}

// React godoc
// @Summary React to a post
// @Description Sets the caller's single reaction. Sending the same emoji again removes it.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.ReactRequest true "Emoji"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/react [patch]
func (c *PostController) React(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.ReactRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.React(ctx.Request.Context(), t.userID, t.postID, req.Emoji)
	respondPost(ctx, http.StatusOK, p, err)
}

// AddComment godoc
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.TextRequest true "Comment text"
// @Success 201 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment [post]
func (c *PostController) AddComment(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.TextRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.AddComment(ctx.Request.Context(), t.userID, t.postID, req.Text)
	respondPost(ctx, http.StatusCreated, p, err)
}

// EditComment godoc
// @Summary Edit a comment
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param request body dto.TextRequest true "Comment text"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId} [put]
func (c *PostController) EditComment(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.TextRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.EditComment(ctx.Request.Context(), t.userID, t.postID, t.commentID, req.Text)
	respondPost(ctx, http.StatusOK, p, err)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId} [delete]
func (c *PostController) DeleteComment(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	p, err := c.postService.DeleteComment(ctx.Request.Context(), t.userID, t.postID, t.commentID)
	respondPost(ctx, http.StatusOK, p, err)
}

// ReactComment godoc
// @Summary React to a comment
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param request body dto.ReactRequest true "Emoji"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId}/react [patch]
func (c *PostController) ReactComment(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.ReactRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.ReactComment(ctx.Request.Context(), t.userID, t.postID, t.commentID, req.Emoji)
	respondPost(ctx, http.StatusOK, p, err)
}

// AddReply godoc
// @Summary Reply to a comment
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param request body dto.TextRequest true "Reply text"
// @Success 201 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId}/reply [post]
func (c *PostController) AddReply(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.TextRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.AddReply(ctx.Request.Context(), t.userID, t.postID, t.commentID, req.Text)
	respondPost(ctx, http.StatusCreated, p, err)
}

// EditReply godoc
// @Summary Edit a reply
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param replyId path string true "Reply ID"
// @Param request body dto.TextRequest true "Reply text"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId}/reply/{replyId} [put]
func (c *PostController) EditReply(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.TextRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.EditReply(ctx.Request.Context(), t.userID, t.postID, t.commentID, t.replyID, req.Text)
	respondPost(ctx, http.StatusOK, p, err)
}

// DeleteReply godoc
// @Summary Delete a reply
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param replyId path string true "Reply ID"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId}/reply/{replyId} [delete]
func (c *PostController) DeleteReply(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	p, err := c.postService.DeleteReply(ctx.Request.Context(), t.userID, t.postID, t.commentID, t.replyID)
	respondPost(ctx, http.StatusOK, p, err)
}

// ReactReply godoc
// @Summary React to a reply
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Param replyId path string true "Reply ID"
// @Param request body dto.ReactRequest true "Emoji"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Router /posts/{id}/comment/{commentId}/reply/{replyId}/react [patch]
func (c *PostController) ReactReply(ctx *gin.Context) {
	t, valid := target(ctx)
	if !valid {
		return
	}
	var req dto.ReactRequest
	if !bindJSON(ctx, &req) {
		return
	}
	p, err := c.postService.ReactReply(ctx.Request.Context(), t.userID, t.postID, t.commentID, t.replyID, req.Emoji)
	respondPost(ctx, http.StatusOK, p, err)
}
