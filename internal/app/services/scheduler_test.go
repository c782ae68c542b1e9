package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models/dto"
)

func TestSchedulerTick(t *testing.T) {
	e := newEnv(alumnus(2, "Ann"))
	ctx := context.Background()
	now := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	rollover := e.rolloverService(now)
	configureWindow(t, rollover, 2025, now.Add(-24*time.Hour), now.Add(24*time.Hour))

	e.tokens.rows["stale"] = &fakeToken{userID: 2, expiry: now.Add(-8 * 24 * time.Hour)}
	e.tokens.rows["revoked"] = &fakeToken{userID: 2, expiry: now.Add(time.Hour), revoked: true}
	e.tokens.rows["live"] = &fakeToken{userID: 2, expiry: now.Add(time.Hour)}

	s := NewScheduler(rollover, e.tokens, time.Minute, false, zerolog.Nop())
	s.now = func() time.Time { return now }
	s.Tick(ctx)
	if e.windows.rows[2025].HasExecuted {
		t.Errorf("rollover ran while disabled")
	}
	if len(e.tokens.rows) != 1 || e.tokens.rows["live"] == nil {
		t.Errorf("unexpected tokens after cleanup: %v", e.tokens.rows)
	}

	s.rollOver = true
	s.Tick(ctx)
	if !e.windows.rows[2025].HasExecuted {
		t.Errorf("due rollover did not run")
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	e := newEnv()
	s := NewScheduler(e.rolloverService(testNow), e.tokens, time.Hour, false, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestEvents(t *testing.T) {
	events := &fakeEvents{}
	svc := NewEventService(events, zerolog.Nop()).(*eventServiceImpl)
	svc.now = fixedNow
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, &dto.CreateEventRequest{Title: "  ", Date: testNow}); err == nil {
		t.Error("expected an error for a blank title")
	}
	past, err := svc.Create(ctx, 1, &dto.CreateEventRequest{Title: "Reunion", Date: testNow.Add(-48 * time.Hour), Location: "Hall"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if past.CreatedBy != 1 || !past.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected event: %+v", past)
	}
	if _, err := svc.Create(ctx, 1, &dto.CreateEventRequest{Title: "Homecoming", Date: testNow.Add(48 * time.Hour), Location: "Campus"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, _ := svc.List(ctx, false)
	upcoming, _ := svc.List(ctx, true)
	if len(all) != 2 || len(upcoming) != 1 || upcoming[0].Title != "Homecoming" {
		t.Errorf("List = %d all, %+v upcoming", len(all), upcoming)
	}
}
