package graph

import (
	"errors"
	"testing"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

func count(ids []int64, id int64) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

func TestRequestThenAcceptIsSymmetric(t *testing.T) {
	var a, b Relations
	if err := Request(&a, 1, &b, 2); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !a.HasSentTo(2) || !b.HasPendingFrom(1) {
		t.Fatalf("request not mirrored: a=%+v b=%+v", a, b)
	}

	changed, err := Accept(&a, 1, &b, 2)
	if err != nil || !changed {
		t.Fatalf("Accept: changed=%v err=%v", changed, err)
	}

	if count(a.Connections, 2) != 1 || count(b.Connections, 1) != 1 {
		t.Errorf("expected each side to list the other exactly once: a=%v b=%v", a.Connections, b.Connections)
	}
	if len(a.SentRequests)+len(a.PendingRequests)+len(b.SentRequests)+len(b.PendingRequests) != 0 {
		t.Errorf("expected pending lists to be empty: a=%+v b=%+v", a, b)
	}

	changed, err = Accept(&a, 1, &b, 2)
	if err != nil || changed {
		t.Errorf("duplicate accept should be a no-op, got changed=%v err=%v", changed, err)
	}
	if count(a.Connections, 2) != 1 {
		t.Errorf("duplicate accept must not push twice")
	}
}

func TestRequestRejectsInvalidTransitions(t *testing.T) {
	var a, b Relations

	if err := Request(&a, 1, &a, 1); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("self request: expected bad request, got %v", err)
	}

	_ = Request(&a, 1, &b, 2)
	if err := Request(&a, 1, &b, 2); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("duplicate request: expected conflict, got %v", err)
	}
	if err := Request(&b, 2, &a, 1); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("reverse request: expected conflict, got %v", err)
	}

	_, _ = Accept(&a, 1, &b, 2)
	if err := Request(&b, 2, &a, 1); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("request while connected: expected conflict, got %v", err)
	}
}

func TestRejectAndCancel(t *testing.T) {
	var a, b Relations
	_ = Request(&a, 1, &b, 2)

	if err := Reject(&a, 1, &b, 2); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if a.HasSentTo(2) || b.HasPendingFrom(1) || b.IsConnected(1) {
		t.Errorf("reject should clear the pair without connecting: a=%+v b=%+v", a, b)
	}
	if err := Reject(&a, 1, &b, 2); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("second reject: expected not found, got %v", err)
	}

	_ = Request(&a, 1, &b, 2)
	if err := Cancel(&a, 1, &b, 2); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(a.SentRequests) != 0 || len(b.PendingRequests) != 0 {
		t.Errorf("cancel should clear the pair")
	}

	if _, err := Accept(&a, 1, &b, 2); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("accept without request: expected not found, got %v", err)
	}
}

func TestDetach(t *testing.T) {
	r := Relations{
		Connections:     []int64{2, 3},
		PendingRequests: []int64{3, 4},
		SentRequests:    []int64{5, 3},
	}
	r.Detach(3)

	for _, ids := range [][]int64{r.Connections, r.PendingRequests, r.SentRequests} {
		for _, id := range ids {
			if id == 3 {
				t.Fatalf("3 still referenced: %+v", r)
			}
		}
	}
	if !r.IsConnected(2) || !r.HasPendingFrom(4) || !r.HasSentTo(5) {
		t.Errorf("unrelated ids were dropped: %+v", r)
	}
}
