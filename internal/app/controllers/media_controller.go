package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

const defaultUploadFolder = "posts"

// MediaController handles media uploads
type MediaController struct {
	mediaService services.MediaService
}

// NewMediaController creates a new MediaController
func NewMediaController(mediaService services.MediaService) *MediaController {
	return &MediaController{mediaService: mediaService}
}

func uploadFolder(ctx *gin.Context) string {
	if folder := ctx.PostForm("folder"); folder != "" {
		return folder
	}
	return ctx.DefaultQuery("folder", defaultUploadFolder)
}

// Upload godoc
// @Summary Upload an image or video
// @Description Stores the file and returns a media reference to use in posts and profiles
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image or video file"
// @Param folder formData string false "posts, profiles, banners or videos" default(posts)
// @Success 201 {object} dto.APIResponse{data=dto.MediaResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /media/upload [post]
func (c *MediaController) Upload(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, services.MaxUploadSize+1<<20)

	fh, err := ctx.FormFile("file")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("file", "a file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("could not read the uploaded file"))
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	resp, err := c.mediaService.Upload(ctx.Request.Context(), userID, f, fh.Size, fh.Filename, contentType, uploadFolder(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: resp})
}

// Presign godoc
// @Summary Presign a direct upload
// @Description Returns a presigned PUT URL and the media reference it will produce. Only available with object storage.
// @Tags media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param folder query string false "posts, profiles, banners or videos" default(posts)
// @Param request body dto.PresignRequest true "File name and content type"
// @Success 200 {object} dto.APIResponse{data=dto.PresignResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /media/presign [post]
func (c *MediaController) Presign(ctx *gin.Context) {
	userID, found := callerID(ctx)
	if !found {
		return
	}
	var req dto.PresignRequest
	if !bindJSON(ctx, &req) {
		return
	}
	resp, err := c.mediaService.Presign(ctx.Request.Context(), userID, &req, ctx.DefaultQuery("folder", defaultUploadFolder))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}
