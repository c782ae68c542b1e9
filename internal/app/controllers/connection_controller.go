package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
)

// ConnectionController handles the connection handshake and discovery
type ConnectionController struct {
	connectionService services.ConnectionService
}

// NewConnectionController creates a new ConnectionController
func NewConnectionController(connectionService services.ConnectionService) *ConnectionController {
	return &ConnectionController{connectionService: connectionService}
}

type connectionAction func(ctx *gin.Context, callerID int64) error

func (c *ConnectionController) act(ctx *gin.Context, action connectionAction, msg string) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	if err := action(ctx, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, msg)
}

// SendRequest godoc
// @Summary Send a connection request
// @Tags connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConnectTargetRequest true "Target user"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Self request, already connected or already pending"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /connect/request [post]
func (c *ConnectionController) SendRequest(ctx *gin.Context) {
	var req dto.ConnectTargetRequest
	if !bindJSON(ctx, &req) {
		return
	}
	c.act(ctx, func(ctx *gin.Context, me int64) error {
		return c.connectionService.SendRequest(ctx.Request.Context(), me, req.To)
	}, "Connection request sent")
}

// Accept godoc
// @Summary Accept a connection request
// @Tags connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConnectSourceRequest true "Requesting user"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "No pending request from this user"
// @Router /connect/accept [post]
func (c *ConnectionController) Accept(ctx *gin.Context) {
	var req dto.ConnectSourceRequest
	if !bindJSON(ctx, &req) {
		return
	}
	c.act(ctx, func(ctx *gin.Context, me int64) error {
		return c.connectionService.Accept(ctx.Request.Context(), req.From, me)
	}, "Connection request accepted")
}

// Reject godoc
// @Summary Reject a connection request
// @Tags connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConnectSourceRequest true "Requesting user"
// @Success 200 {object} dto.APIResponse
// @Router /connect/reject [post]
func (c *ConnectionController) Reject(ctx *gin.Context) {
	var req dto.ConnectSourceRequest
	if !bindJSON(ctx, &req) {
		return
	}
	c.act(ctx, func(ctx *gin.Context, me int64) error {
		return c.connectionService.Reject(ctx.Request.Context(), req.From, me)
	}, "Connection request rejected")
}

// Cancel godoc
// @Summary Withdraw a sent connection request
// @Tags connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConnectTargetRequest true "Target user"
// @Success 200 {object} dto.APIResponse
// @Router /connect/cancel [post]
func (c *ConnectionController) Cancel(ctx *gin.Context) {
	var req dto.ConnectTargetRequest
	if !bindJSON(ctx, &req) {
		return
	}
	c.act(ctx, func(ctx *gin.Context, me int64) error {
		return c.connectionService.Cancel(ctx.Request.Context(), me, req.To)
	}, "Connection request cancelled")
}

func (c *ConnectionController) list(ctx *gin.Context, fetch func(ctx *gin.Context, me int64) ([]dto.ConnectionUser, error)) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	cards, err := fetch(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, cards)
}

// ListMine godoc
// @Summary List own connections
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ConnectionUser}
// @Router /connect/list [get]
func (c *ConnectionController) ListMine(ctx *gin.Context) {
	c.list(ctx, func(ctx *gin.Context, me int64) ([]dto.ConnectionUser, error) {
		return c.connectionService.ListConnections(ctx.Request.Context(), me, me)
	})
}

// ListOf godoc
// @Summary List a user's connections
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ConnectionUser}
// @Failure 404 {object} dto.ErrorResponse
// @Router /connect/list/{id} [get]
func (c *ConnectionController) ListOf(ctx *gin.Context) {
	id, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}
	c.list(ctx, func(ctx *gin.Context, me int64) ([]dto.ConnectionUser, error) {
		return c.connectionService.ListConnections(ctx.Request.Context(), id, me)
	})
}

// Pending godoc
// @Summary List incoming requests
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ConnectionUser}
// @Router /connect/pending [get]
func (c *ConnectionController) Pending(ctx *gin.Context) {
	c.list(ctx, func(ctx *gin.Context, me int64) ([]dto.ConnectionUser, error) {
		return c.connectionService.Pending(ctx.Request.Context(), me)
	})
}

// Sent godoc
// @Summary List outgoing requests
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ConnectionUser}
// @Router /connect/sent [get]
func (c *ConnectionController) Sent(ctx *gin.Context) {
	c.list(ctx, func(ctx *gin.Context, me int64) ([]dto.ConnectionUser, error) {
		return c.connectionService.Sent(ctx.Request.Context(), me)
	})
}

// Suggestions godoc
// @Summary Connection suggestions
// @Description New alumni, best connected alumni and people sharing the caller's course or industry. Each group holds up to 6 users and never repeats a user or lists existing relations.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SuggestionsResponse}
// @Router /connect/suggestions [get]
func (c *ConnectionController) Suggestions(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	resp, err := c.connectionService.Suggestions(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Search godoc
// @Summary Search users
// @Description Case-insensitive match on name, email, enrollment number or course
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param query query string false "Search term"
// @Success 200 {object} dto.APIResponse{data=[]dto.ConnectionUser}
// @Router /connect/search [get]
func (c *ConnectionController) Search(ctx *gin.Context) {
	query := ctx.Query("query")
	c.list(ctx, func(ctx *gin.Context, me int64) ([]dto.ConnectionUser, error) {
		return c.connectionService.Search(ctx.Request.Context(), me, query)
	})
}
