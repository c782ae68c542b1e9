package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
	"github.com/yigit/alumnet/internal/pkg/helpers"
)

// UserController handles profile operations
type UserController struct {
	userService   services.UserService
	pointsService services.PointsService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, pointsService services.PointsService) *UserController {
	return &UserController{userService: userService, pointsService: pointsService}
}

// GetMe godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/me [get]
func (c *UserController) GetMe(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	resp, err := c.userService.GetMe(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// UpdateMe godoc
// @Summary Update own profile
// @Description Partially updates the name and profile sections. Replaced profile and banner images are removed from storage. Completing the profile grants the one-time completion points.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/me [put]
func (c *UserController) UpdateMe(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}
	resp, err := c.userService.UpdateMe(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// GetProfile godoc
// @Summary View a profile
// @Description Returns a user's public profile and records the visit
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	viewerID, found := callerID(ctx)
	if !found {
		return
	}
	profileID, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}
	resp, err := c.userService.GetProfile(ctx.Request.Context(), viewerID, profileID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// MyPosts godoc
// @Summary List own posts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse}
// @Router /users/me/posts [get]
func (c *UserController) MyPosts(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.userService.MyPosts(ctx.Request.Context(), userID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Activity godoc
// @Summary List own activity
// @Description Reactions, comments and replies the caller authored across all posts, newest first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]content.Activity}
// @Router /users/me/activity [get]
func (c *UserController) Activity(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	list, err := c.userService.Activity(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, list)
}

// AwardEligible godoc
// @Summary List award eligible alumni
// @Description Alumni whose total reached the award threshold, highest first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RankedUser}
// @Router /users/award-eligible [get]
func (c *UserController) AwardEligible(ctx *gin.Context) {
	list, err := c.pointsService.AwardEligible(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, list)
}
