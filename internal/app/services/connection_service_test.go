package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/websocket"
)

func TestConnectionHandshake(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"), alumnus(2, "Ben"), faculty(3, "Cy"))
	svc := e.connectionService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if got := e.notes.ofType(models.NotificationConnectRequest); len(got) != 1 || got[0].ReceiverID != 2 {
		t.Fatalf("expected a connect_request to 2, got %+v", got)
	}
	if len(e.publisher.sent) != 1 || e.publisher.sent[0].userID != 2 || e.publisher.sent[0].event != websocket.EventNewNotification {
		t.Errorf("expected a push to user 2, got %+v", e.publisher.sent)
	}
	if err := svc.SendRequest(ctx, 2, 1); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("reverse request: expected conflict, got %v", err)
	}

	if err := svc.Accept(ctx, 1, 2); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	a, b := e.users.get(1), e.users.get(2)
	if !a.IsConnected(2) || !b.IsConnected(1) || len(a.SentRequests) != 0 || len(b.PendingRequests) != 0 {
		t.Fatalf("connection not symmetric: a=%+v b=%+v", a.Relations, b.Relations)
	}
	if a.Points.AlumniParticipation != testDefaults.ConnectionPoints || b.Points.Total != testDefaults.ConnectionPoints {
		t.Errorf("connection points not awarded: a=%+v b=%+v", a.Points, b.Points)
	}
	if got := e.notes.ofType(models.NotificationConnectAccept); len(got) != 1 || got[0].ReceiverID != 1 || got[0].SenderID != 2 {
		t.Errorf("expected a connect_accept to 1, got %+v", got)
	}

	if err := svc.Accept(ctx, 1, 2); err != nil {
		t.Fatalf("repeat accept: %v", err)
	}
	if got := e.users.get(1).Points.Total; got != testDefaults.ConnectionPoints {
		t.Errorf("repeat accept awarded points again: total=%d", got)
	}

	if err := svc.SendRequest(ctx, 3, 1); err != nil {
		t.Fatalf("SendRequest from faculty: %v", err)
	}
	if err := svc.Accept(ctx, 3, 1); err != nil {
		t.Fatalf("Accept faculty: %v", err)
	}
	if got := e.users.get(3).Points.Total; got != 0 {
		t.Errorf("faculty accrued points: %d", got)
	}
	if got := e.users.get(1).Points.Total; got != 2*testDefaults.ConnectionPoints {
		t.Errorf("alumni side total = %d, want %d", got, 2*testDefaults.ConnectionPoints)
	}
}

func TestConnectionErrors(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"), alumnus(2, "Ben"))
	svc := e.connectionService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, 1, 1); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("self request: expected bad request, got %v", err)
	}
	if err := svc.SendRequest(ctx, 1, 99); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("missing target: expected user not found, got %v", err)
	}
	if err := svc.Reject(ctx, 2, 1); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("reject without request: expected not found, got %v", err)
	}

	_ = svc.SendRequest(ctx, 1, 2)
	if err := svc.Cancel(ctx, 1, 2); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if a := e.users.get(1); len(a.SentRequests) != 0 {
		t.Errorf("cancel left a sent request: %+v", a.Relations)
	}
	if err := svc.Accept(ctx, 1, 2); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("accept after cancel: expected not found, got %v", err)
	}
}

func TestConnectionRetriesOnVersionConflict(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"), alumnus(2, "Ben"))
	e.users.conflicts = 1
	svc := e.connectionService()

	if err := svc.SendRequest(context.Background(), 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if e.tx.calls != 2 {
		t.Errorf("expected one retry, got %d transactions", e.tx.calls)
	}
	if !e.users.get(2).HasPendingFrom(1) {
		t.Errorf("request not stored after retry")
	}
}

func TestListsAndSearch(t *testing.T) {
	ann := alumnus(1, "Ann")
	ann.Profile.Course = "B.Tech CSE"
	ben := alumnus(2, "Ben")
	ben.Profile.Course = "B.Tech CSE"
	cy := alumnus(3, "Cy")
	e := newEnv(ann, ben, cy, faculty(4, "Dee"))
	svc := e.connectionService()
	ctx := context.Background()

	_ = svc.SendRequest(ctx, 1, 2)
	_ = svc.Accept(ctx, 1, 2)
	_ = svc.SendRequest(ctx, 3, 1)

	list, err := svc.ListConnections(ctx, 1, 1)
	if err != nil || len(list) != 1 || list[0].ID != 2 || !list[0].IsConnected {
		t.Fatalf("ListConnections = %+v, %v", list, err)
	}
	pending, _ := svc.Pending(ctx, 1)
	if len(pending) != 1 || pending[0].ID != 3 {
		t.Errorf("Pending = %+v", pending)
	}
	sent, _ := svc.Sent(ctx, 3)
	if len(sent) != 1 || sent[0].ID != 1 {
		t.Errorf("Sent = %+v", sent)
	}

	found, err := svc.Search(ctx, 1, "cse")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].ID != 2 || !found[0].IsConnected {
		t.Errorf("Search = %+v", found)
	}
	if empty, _ := svc.Search(ctx, 1, "  "); len(empty) != 0 {
		t.Errorf("blank search returned %+v", empty)
	}
}

func TestSuggestionsExcludeRelatedUsers(t *testing.T) {
	me := alumnus(1, "Me")
	me.Profile.Course = "MBA"
	users := []*models.User{me}
	for i := int64(2); i <= 20; i++ {
		u := alumnus(i, string(rune('A'+i)))
		if i%2 == 0 {
			u.Profile.Course = "MBA"
		}
		users = append(users, u)
	}
	e := newEnv(users...)
	svc := e.connectionService()
	ctx := context.Background()
	_ = svc.SendRequest(ctx, 1, 2)
	_ = svc.SendRequest(ctx, 3, 1)

	resp, err := svc.Suggestions(ctx, 1)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	seen := map[int64]bool{}
	for _, group := range [][]int64{idsOfCards(resp.NewAlumni), idsOfCards(resp.TopConnections), idsOfCards(resp.RelatedPeople)} {
		if len(group) > SuggestionGroupSize {
			t.Errorf("group larger than %d: %v", SuggestionGroupSize, group)
		}
		for _, id := range group {
			if id == 1 || id == 2 || id == 3 {
				t.Errorf("suggested related user %d", id)
			}
			if seen[id] {
				t.Errorf("user %d suggested twice", id)
			}
			seen[id] = true
		}
	}
	if len(resp.RelatedPeople) == 0 {
		t.Errorf("expected course mates among related people")
	}
}
