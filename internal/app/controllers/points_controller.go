package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
)

// PointsController handles ledger configuration, awards, rollover and leaderboards
type PointsController struct {
	pointsService   services.PointsService
	rolloverService services.RolloverService
	logger          zerolog.Logger
}

// NewPointsController creates a new PointsController
func NewPointsController(pointsService services.PointsService, rolloverService services.RolloverService, logger zerolog.Logger) *PointsController {
	return &PointsController{
		pointsService:   pointsService,
		rolloverService: rolloverService,
		logger:          logger,
	}
}

// GetConfig godoc
// @Summary Get the points configuration
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.PointsConfig}
// @Router /admin/points/config [get]
func (c *PointsController) GetConfig(ctx *gin.Context) {
	cfg, err := c.pointsService.GetConfig(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, cfg)
}

// UpdateConfig godoc
// @Summary Update the points configuration
// @Description Partial update. Amounts must be at least 0, post limit count and days at least 1.
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdatePointsConfigRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.PointsConfig}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Main admin only"
// @Router /admin/points/config [post]
func (c *PointsController) UpdateConfig(ctx *gin.Context) {
	var req dto.UpdatePointsConfigRequest
	if !bindJSON(ctx, &req) {
		return
	}
	cfg, err := c.pointsService.UpdateConfig(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, cfg)
}

// ManualAward godoc
// @Summary Award points to an alumnus
// @Description Finds the alumnus by exact name or enrollment number, credits the category (alumniParticipation by default) and notifies them
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ManualAwardRequest true "Award"
// @Success 200 {object} dto.APIResponse{data=dto.ManualAwardResponse}
// @Failure 404 {object} dto.ErrorResponse "No matching alumnus"
// @Router /admin/points/manual-award [post]
func (c *PointsController) ManualAward(ctx *gin.Context) {
	adminID, found := callerID(ctx)
	if !found {
		return
	}
	var req dto.ManualAwardRequest
	if !bindJSON(ctx, &req) {
		return
	}
	resp, err := c.pointsService.ManualAward(ctx.Request.Context(), adminID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// SyncPoints godoc
// @Summary Recompute every user's total
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SyncPointsResponse}
// @Router /admin/points/sync-points [post]
func (c *PointsController) SyncPoints(ctx *gin.Context) {
	resp, err := c.pointsService.SyncTotals(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// ConfigureRollover godoc
// @Summary Set a year's rollover window
// @Description Stores the window and re-arms the rollover for that year
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RolloverConfigRequest true "Window"
// @Success 200 {object} dto.APIResponse{data=points.RolloverWindow}
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/rollover/config [post]
func (c *PointsController) ConfigureRollover(ctx *gin.Context) {
	var req dto.RolloverConfigRequest
	if !bindJSON(ctx, &req) {
		return
	}
	w, err := c.rolloverService.ConfigureWindow(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, w)
}

func (c *PointsController) respondRollover(ctx *gin.Context, resp *dto.RolloverResponse, err error) {
	if err != nil {
		c.logger.Warn().Err(err).Str("path", ctx.FullPath()).Msg("Rollover request refused")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// YearEndRollover godoc
// @Summary Roll over the current year
// @Description Archives every alumnus's total as last year's points and resets the ledger. Runs at most once per year inside the configured window.
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RolloverResponse}
// @Failure 400 {object} dto.ErrorResponse "Not configured or already executed"
// @Failure 403 {object} dto.ErrorResponse "Outside the window"
// @Router /admin/year-end-rollover [post]
func (c *PointsController) YearEndRollover(ctx *gin.Context) {
	resp, err := c.rolloverService.ExecuteCurrentYear(ctx.Request.Context(), services.TriggerYearEnd)
	c.respondRollover(ctx, resp, err)
}

// TriggerRollover godoc
// @Summary Roll over a given year
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TriggerRolloverRequest false "Year, defaults to the current year"
// @Success 200 {object} dto.APIResponse{data=dto.RolloverResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/points/trigger-rollover [post]
func (c *PointsController) TriggerRollover(ctx *gin.Context) {
	var req dto.TriggerRolloverRequest
	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, &req) {
		return
	}
	if req.Year == nil {
		resp, err := c.rolloverService.ExecuteCurrentYear(ctx.Request.Context(), services.TriggerManual)
		c.respondRollover(ctx, resp, err)
		return
	}
	resp, err := c.rolloverService.Execute(ctx.Request.Context(), *req.Year, services.TriggerManual)
	c.respondRollover(ctx, resp, err)
}

// Leaderboard godoc
// @Summary Current leaderboard
// @Description Top 50 approved alumni with points
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RankedUser}
// @Router /admin/leaderboard [get]
func (c *PointsController) Leaderboard(ctx *gin.Context) {
	list, err := c.pointsService.Leaderboard(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, list)
}

// LastYearLeaderboard godoc
// @Summary Last year's leaderboard
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RankedUser}
// @Router /admin/leaderboard/last-year [get]
func (c *PointsController) LastYearLeaderboard(ctx *gin.Context) {
	list, err := c.pointsService.LastYearLeaderboard(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, list)
}
