package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

type errorMapping struct {
	status  int
	code    dto.ErrorCode
	message string
}

// resolveError picks the status, code and default message for err. The
// order matters: specific sentinels are checked before their generic kind.
func resolveError(err error) errorMapping {
	switch {
	// 400
	case errors.Is(err, apperrors.ErrValidationFailed),
		errors.Is(err, apperrors.ErrEmptyPost),
		errors.Is(err, apperrors.ErrInvalidEmoji):
		return errorMapping{http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"}
	case errors.Is(err, apperrors.ErrInvalidOTP):
		return errorMapping{http.StatusBadRequest, dto.ErrorCodeBadRequest, "Invalid or expired OTP"}
	case errors.Is(err, apperrors.ErrBadRequest):
		return errorMapping{http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"}

	// 401
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"}
	case errors.Is(err, apperrors.ErrTokenExpired):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"}
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrTokenRevoked):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"}
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"}
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return errorMapping{http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"}

	// 403
	case errors.Is(err, apperrors.ErrAccountNotApproved):
		return errorMapping{http.StatusForbidden, dto.ErrorCodeNotApproved, "Account pending admin approval"}
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return errorMapping{http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"}

	// 404
	case errors.Is(err, apperrors.ErrUserNotFound):
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"}
	case errors.Is(err, apperrors.ErrPostNotFound):
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Post not found"}
	case errors.Is(err, apperrors.ErrCommentNotFound):
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Comment not found"}
	case errors.Is(err, apperrors.ErrReplyNotFound):
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Reply not found"}
	case errors.Is(err, apperrors.ErrNotificationNotFound):
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Notification not found"}
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return errorMapping{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"}

	// 409
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return errorMapping{http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"}
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return errorMapping{http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"}
	case errors.Is(err, apperrors.ErrVersionConflict):
		return errorMapping{http.StatusConflict, dto.ErrorCodeVersionConflict, "The record was changed by another request, please retry"}
	case errors.Is(err, apperrors.ErrConflict):
		return errorMapping{http.StatusConflict, dto.ErrorCodeConflict, "Conflict"}
	}
	return errorMapping{http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"}
}

// HandleAPIError writes the error envelope for err. Messages carried by a
// CustomError reach the client; anything unexpected is logged and hidden
// behind a generic message.
func HandleAPIError(c *gin.Context, err error) {
	m := resolveError(err)

	if m.status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error while processing request")
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(dto.NewErrorDetail(m.code, m.message)))
		return
	}

	detail := dto.NewErrorDetail(m.code, m.message)
	var custom *apperrors.CustomError
	if errors.As(err, &custom) {
		if custom.Message != "" {
			detail.Message = custom.Message
		}
		if custom.Code != "" {
			detail.Code = dto.ErrorCode(custom.Code)
		}
		if len(custom.Details) > 0 {
			if field, ok := custom.Details["field"].(string); ok && len(custom.Details) == 1 {
				detail = detail.WithField(field)
			} else {
				detail = detail.WithDetails(custom.Details)
			}
		}
	}

	c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
}
