package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/auth"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

// Context keys set by JWTAuth.
const (
	ContextUserID      = "userID"
	ContextRole        = "role"
	ContextIsAdmin     = "isAdmin"
	ContextIsMainAdmin = "isMainAdmin"
	ContextUser        = "user"
)

// UserLookup resolves the identity behind a token on every request.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	tokens TokenValidator
	users  UserLookup
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth verifies the bearer token and loads the current user record.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return m.authenticate(false)
}

// WebsocketAuth is JWTAuth that also accepts the token query parameter,
// since browsers cannot set headers on a websocket upgrade. Mount it on the
// upgrade route only.
func (m *AuthMiddleware) WebsocketAuth() gin.HandlerFunc {
	return m.authenticate(true)
}

func (m *AuthMiddleware) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil && allowQuery {
			if q := strings.TrimSpace(c.Query("token")); q != "" {
				tokenString, err = q, nil
			}
		}
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing or malformed")
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenExpired) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "User no longer exists")
				return
			}
			logger.Error().Err(err).Int64("userID", claims.UserID).Msg("Failed to load user for token")
			HandleAPIError(c, err)
			return
		}

		// Flags come from the stored record so promotions and demotions
		// apply without a new token.
		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextIsAdmin, user.IsAdmin)
		c.Set(ContextIsMainAdmin, user.IsMainAdmin)
		c.Set(ContextUser, user)

		c.Next()
	}
}

func flag(c *gin.Context, key string) bool {
	v, _ := c.Get(key)
	b, _ := v.(bool)
	return b
}

func requireFlag(key, details string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserID); !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}
		if !flag(c, key) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").WithDetails(details)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}

// AdminRequired allows admins only.
func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return requireFlag(ContextIsAdmin, "Admin privileges are required")
}

// MainAdminRequired allows the main admin only.
func (m *AuthMiddleware) MainAdminRequired() gin.HandlerFunc {
	return requireFlag(ContextIsMainAdmin, "Only the main admin can perform this action")
}

// GetUserID returns the authenticated user's id.
func GetUserID(c *gin.Context) (int64, error) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, apperrors.ErrUnauthenticated
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, apperrors.ErrUnauthenticated
	}
	return id, nil
}

// CurrentUser returns the user record loaded by JWTAuth.
func CurrentUser(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	u, ok := v.(*models.User)
	if !ok || u == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return u, nil
}

// IsMainAdmin reports whether the caller is the main admin.
func IsMainAdmin(c *gin.Context) bool {
	return flag(c, ContextIsMainAdmin)
}
