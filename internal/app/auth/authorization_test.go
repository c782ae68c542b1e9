package auth

import (
	"errors"
	"testing"

	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

func TestPostPermissions(t *testing.T) {
	s := NewAuthorizationService()
	post := &content.Post{ID: 1, UserID: 10}

	owner := &models.User{ID: 10}
	admin := &models.User{ID: 20, IsAdmin: true}
	mainAdmin := &models.User{ID: 30, IsAdmin: true, IsMainAdmin: true}

	if err := s.CanEditPost(owner, post); err != nil {
		t.Errorf("owner edit: %v", err)
	}
	if err := s.CanEditPost(mainAdmin, post); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("main admin edit should be denied, got %v", err)
	}
	if err := s.CanDeletePost(owner, post); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if err := s.CanDeletePost(mainAdmin, post); err != nil {
		t.Errorf("main admin delete: %v", err)
	}
	if err := s.CanDeletePost(admin, post); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("plain admin delete should be denied, got %v", err)
	}
}

func TestCommentAndReplyPermissions(t *testing.T) {
	s := NewAuthorizationService()
	c := &content.Comment{ID: "c1", UserID: 5}
	r := &content.Reply{ID: "r1", UserID: 6}

	if err := s.CanModifyComment(5, c); err != nil {
		t.Errorf("author: %v", err)
	}
	if err := s.CanModifyComment(6, c); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("stranger on comment: %v", err)
	}
	if err := s.CanModifyReply(5, r); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("stranger on reply: %v", err)
	}
}

func TestMainAdminIsProtected(t *testing.T) {
	s := NewAuthorizationService()
	if err := s.CanManageAccount(&models.User{IsMainAdmin: true}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := s.CanManageAccount(&models.User{Role: models.RoleFaculty}); err != nil {
		t.Errorf("unexpected: %v", err)
	}
}
