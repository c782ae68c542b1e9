// Package auth holds ownership and role checks shared by the services.
package auth

import (
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// AuthorizationService answers who may change what.
type AuthorizationService struct{}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

// CanEditPost allows only the author to edit a post.
func (s *AuthorizationService) CanEditPost(actor *models.User, p *content.Post) error {
	if actor.ID != p.UserID {
		return apperrors.NewForbiddenError("you can only edit your own posts")
	}
	return nil
}

// CanDeletePost allows the author or the main admin.
func (s *AuthorizationService) CanDeletePost(actor *models.User, p *content.Post) error {
	if actor.ID == p.UserID || actor.IsMainAdmin {
		return nil
	}
	return apperrors.NewForbiddenError("you can only delete your own posts")
}

// CanModifyComment allows only the comment's author.
func (s *AuthorizationService) CanModifyComment(actorID int64, c *content.Comment) error {
	if actorID != c.UserID {
		return apperrors.NewForbiddenError("you can only modify your own comments")
	}
	return nil
}

// CanModifyReply allows only the reply's author.
func (s *AuthorizationService) CanModifyReply(actorID int64, r *content.Reply) error {
	if actorID != r.UserID {
		return apperrors.NewForbiddenError("you can only modify your own replies")
	}
	return nil
}

// CanManageAccount refuses any admin action against the main admin.
func (s *AuthorizationService) CanManageAccount(target *models.User) error {
	if target.IsMainAdmin {
		return apperrors.NewForbiddenError("the main admin account cannot be modified or deleted")
	}
	return nil
}
