package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/app/services"
	"github.com/yigit/alumnet/internal/middleware"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// stubNotifications implements only what the tests call; anything else
// panics on the nil embedded interface.
type stubNotifications struct {
	services.NotificationService
	owner  map[int64]int64
	unread int64
}

func (s *stubNotifications) MarkRead(_ context.Context, receiverID, id int64) error {
	owner, ok := s.owner[id]
	if !ok {
		return apperrors.ErrNotificationNotFound
	}
	if owner != receiverID {
		return apperrors.NewForbiddenError("not your notification")
	}
	return nil
}

func (s *stubNotifications) MarkAllRead(_ context.Context, _ int64) (int64, error) {
	n := s.unread
	s.unread = 0
	return n, nil
}

type stubConnections struct {
	services.ConnectionService
	calls [][2]int64
}

func (s *stubConnections) SendRequest(_ context.Context, fromID, toID int64) error {
	if fromID == toID {
		return apperrors.NewBadRequestError("cannot connect with yourself")
	}
	s.calls = append(s.calls, [2]int64{fromID, toID})
	return nil
}

func (s *stubConnections) Accept(_ context.Context, fromID, toID int64) error {
	s.calls = append(s.calls, [2]int64{fromID, toID})
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// asUser stands in for JWTAuth.
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Next()
	}
}

func newRouter(userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID > 0 {
		r.Use(asUser(userID))
	}
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	if resp.Error == nil {
		t.Fatalf("missing error detail in %s", w.Body.String())
	}
	return resp.Error.Code
}

func TestNotificationMarkRead(t *testing.T) {
	svc := &stubNotifications{owner: map[int64]int64{5: 1, 6: 2}}
	c := NewNotificationController(svc)
	r := newRouter(1)
	r.PATCH("/notifications/:id/read", c.MarkRead)

	tests := []struct {
		name   string
		path   string
		status int
		code   dto.ErrorCode
	}{
		{"own notification", "/notifications/5/read", http.StatusOK, ""},
		{"someone else's", "/notifications/6/read", http.StatusForbidden, dto.ErrorCodeForbidden},
		{"missing", "/notifications/7/read", http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"bad id", "/notifications/abc/read", http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"zero id", "/notifications/0/read", http.StatusBadRequest, dto.ErrorCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPatch, tt.path, "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.code != "" && errorCode(t, w) != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, errorCode(t, w))
			}
		})
	}
}

func TestNotificationMarkAllReadReturnsCount(t *testing.T) {
	c := NewNotificationController(&stubNotifications{unread: 3})
	r := newRouter(1)
	r.PATCH("/notifications/read-all", c.MarkAllRead)

	w := do(r, http.MethodPatch, "/notifications/read-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data dto.CountResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Count != 3 {
		t.Errorf("expected count 3, got %d", resp.Data.Count)
	}
}

func TestCallerRequired(t *testing.T) {
	c := NewNotificationController(&stubNotifications{})
	r := newRouter(0)
	r.PATCH("/notifications/read-all", c.MarkAllRead)

	w := do(r, http.MethodPatch, "/notifications/read-all", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a caller, got %d", w.Code)
	}
}

func TestConnectionHandshakeDirections(t *testing.T) {
	svc := &stubConnections{}
	c := NewConnectionController(svc)
	r := newRouter(4)
	r.POST("/connect/request", c.SendRequest)
	r.POST("/connect/accept", c.Accept)

	if w := do(r, http.MethodPost, "/connect/request", `{"to":9}`); w.Code != http.StatusOK {
		t.Fatalf("request: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPost, "/connect/accept", `{"from":9}`); w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// the caller sends as the source and accepts as the target
	want := [][2]int64{{4, 9}, {9, 4}}
	if len(svc.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), svc.calls)
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Errorf("call %d: expected %v, got %v", i, want[i], svc.calls[i])
		}
	}
}

func TestConnectionRequestValidation(t *testing.T) {
	c := NewConnectionController(&stubConnections{})
	r := newRouter(4)
	r.POST("/connect/request", c.SendRequest)

	w := do(r, http.MethodPost, "/connect/request", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing target: expected 400, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/connect/request", `{"to":4}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self request: expected 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	up := gin.New()
	up.GET("/health", NewHealthController(stubPinger{}, "test").Health)
	if w := do(up, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("healthy database: expected 200, got %d", w.Code)
	}

	down := gin.New()
	down.GET("/health", NewHealthController(stubPinger{err: errors.New("refused")}, "test").Health)
	w := do(down, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unreachable database: expected 503, got %d", w.Code)
	}
	if errorCode(t, w) != dto.ErrorCodeDatabaseError {
		t.Errorf("expected database error code, got %s", errorCode(t, w))
	}
}
