package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
)

// AdminController handles account oversight
type AdminController struct {
	adminService services.AdminService
	logger       zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(adminService services.AdminService, logger zerolog.Logger) *AdminController {
	return &AdminController{adminService: adminService, logger: logger}
}

func (c *AdminController) listUsers(ctx *gin.Context, fetch func(*gin.Context) ([]dto.UserResponse, error)) {
	users, err := fetch(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, users)
}

// PendingUsers godoc
// @Summary List accounts awaiting approval
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/pending-users [get]
func (c *AdminController) PendingUsers(ctx *gin.Context) {
	c.listUsers(ctx, func(ctx *gin.Context) ([]dto.UserResponse, error) {
		return c.adminService.PendingUsers(ctx.Request.Context())
	})
}

// AllUsers godoc
// @Summary List every account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse}
// @Router /admin/all-users [get]
func (c *AdminController) AllUsers(ctx *gin.Context) {
	c.listUsers(ctx, func(ctx *gin.Context) ([]dto.UserResponse, error) {
		return c.adminService.AllUsers(ctx.Request.Context())
	})
}

// Admins godoc
// @Summary List faculty and admins
// @Description Excludes the main admin
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse}
// @Router /admin/admins [get]
func (c *AdminController) Admins(ctx *gin.Context) {
	c.listUsers(ctx, func(ctx *gin.Context) ([]dto.UserResponse, error) {
		return c.adminService.Admins(ctx.Request.Context())
	})
}

type userAction func(ctx *gin.Context, adminID, userID int64) (*dto.UserResponse, error)

func (c *AdminController) act(ctx *gin.Context, action userAction) {
	adminID, found := callerID(ctx)
	if !found {
		return
	}
	userID, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}
	resp, err := action(ctx, adminID, userID)
	if err != nil {
		c.logger.Warn().Err(err).Int64("adminID", adminID).Int64("userID", userID).Str("path", ctx.FullPath()).Msg("Admin action failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Approve godoc
// @Summary Approve an account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/approve/{id} [put]
func (c *AdminController) Approve(ctx *gin.Context) {
	c.act(ctx, func(ctx *gin.Context, adminID, userID int64) (*dto.UserResponse, error) {
		return c.adminService.Approve(ctx.Request.Context(), adminID, userID)
	})
}

// MakeAdmin godoc
// @Summary Promote a faculty member to admin
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Not a faculty member"
// @Router /admin/make-admin/{id} [put]
func (c *AdminController) MakeAdmin(ctx *gin.Context) {
	c.act(ctx, func(ctx *gin.Context, adminID, userID int64) (*dto.UserResponse, error) {
		return c.adminService.MakeAdmin(ctx.Request.Context(), adminID, userID)
	})
}

// RemoveAdmin godoc
// @Summary Demote an admin to faculty
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 403 {object} dto.ErrorResponse "Main admin"
// @Router /admin/remove-admin/{id} [put]
func (c *AdminController) RemoveAdmin(ctx *gin.Context) {
	c.act(ctx, func(ctx *gin.Context, adminID, userID int64) (*dto.UserResponse, error) {
		return c.adminService.RemoveAdmin(ctx.Request.Context(), adminID, userID)
	})
}

// DeleteUser godoc
// @Summary Delete or reject an account
// @Description Removes the user's media, posts and connections, emails them and deletes the account. Media and email failures do not stop the deletion.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteUserResponse}
// @Failure 403 {object} dto.ErrorResponse "Main admin"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/delete-user/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	adminID, found := callerID(ctx)
	if !found {
		return
	}
	userID, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}
	resp, err := c.adminService.DeleteUser(ctx.Request.Context(), adminID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// ExportAlumni godoc
// @Summary Export alumni
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param query query string false "Name, email, enrollment number or course"
// @Param course query string false "Course"
// @Param year query string false "Graduation year"
// @Param industry query string false "Industry"
// @Success 200 {object} dto.APIResponse{data=[]dto.ExportAlumniRow}
// @Router /admin/export-alumni [get]
func (c *AdminController) ExportAlumni(ctx *gin.Context) {
	var filter dto.UserFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}
	rows, err := c.adminService.ExportAlumni(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, rows)
}
