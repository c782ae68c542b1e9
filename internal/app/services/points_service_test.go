package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/points"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

func intp(v int) *int { return &v }

func TestGetConfigCreatesDefaults(t *testing.T) {
	e := newEnv()
	cfg, err := e.points.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.PostPoints != testDefaults.PostPoints || cfg.ConnectionPoints != testDefaults.ConnectionPoints {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if e.configs.cfg == nil {
		t.Errorf("defaults were not persisted")
	}
}

func TestUpdateConfig(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	cfg, err := e.points.UpdateConfig(ctx, &dto.UpdatePointsConfigRequest{PostPoints: intp(7)})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if cfg.PostPoints != 7 || cfg.ConnectionPoints != testDefaults.ConnectionPoints {
		t.Errorf("partial update went wrong: %+v", cfg)
	}

	_, err = e.points.UpdateConfig(ctx, &dto.UpdatePointsConfigRequest{PostLimitDays: intp(0)})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("expected validation error for zero window, got %v", err)
	}
	if e.configs.cfg.PostLimitDays != testDefaults.PostLimitDays {
		t.Errorf("rejected update was saved")
	}
}

func TestManualAward(t *testing.T) {
	a := alumnus(2, "Ann")
	a.EnrollmentNumber = "ENR001"
	e := newEnv(mainAdmin(1), a, faculty(3, "Ann Faculty"))
	ctx := context.Background()

	resp, err := e.points.ManualAward(ctx, 1, &dto.ManualAwardRequest{Search: " enr001 ", Amount: 25})
	if err != nil {
		t.Fatalf("ManualAward: %v", err)
	}
	if resp.Category != points.AlumniParticipation || resp.Points.AlumniParticipation != 25 || resp.Points.Total != 25 {
		t.Errorf("unexpected award: %+v", resp)
	}
	notes := e.notes.ofType(models.NotificationPointsAwarded)
	if len(notes) != 1 || notes[0].ReceiverID != 2 || notes[0].Message != "You have been awarded 25 points by the Admin." {
		t.Errorf("unexpected notification: %+v", notes)
	}

	_, err = e.points.ManualAward(ctx, 1, &dto.ManualAwardRequest{Search: "Ann", Amount: 5, Category: "referrals", Message: "Thanks!"})
	if err != nil {
		t.Fatalf("ManualAward by name: %v", err)
	}
	if u := e.users.get(2); u.Points.Referrals != 5 || u.Points.Total != 30 {
		t.Errorf("unexpected balance: %+v", u.Points)
	}

	if _, err := e.points.ManualAward(ctx, 1, &dto.ManualAwardRequest{Search: "Ann Faculty", Amount: 5}); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("faculty target: expected not found, got %v", err)
	}
	if _, err := e.points.ManualAward(ctx, 1, &dto.ManualAwardRequest{Search: "Ann", Amount: 5, Category: "karma"}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("unknown category: expected validation error, got %v", err)
	}
}

func TestAwardSkipsNonAlumni(t *testing.T) {
	e := newEnv(faculty(1, "Fay"))
	granted, err := e.points.Award(context.Background(), 1, points.Referrals, 10)
	if err != nil || granted != 0 {
		t.Errorf("Award to faculty = %d, %v", granted, err)
	}
	if e.users.get(1).Points.Total != 0 {
		t.Errorf("faculty accrued points")
	}
}

func TestSyncTotals(t *testing.T) {
	drifted := alumnus(2, "Ann")
	drifted.Points = points.Balance{Referrals: 10, CampusEngagement: 5, Total: 3}
	fine := alumnus(3, "Ben")
	fine.Points = points.Balance{Referrals: 4, Total: 4}
	e := newEnv(mainAdmin(1), drifted, fine)

	resp, err := e.points.SyncTotals(context.Background())
	if err != nil {
		t.Fatalf("SyncTotals: %v", err)
	}
	if resp.UsersChecked != 3 || resp.UsersRepaired != 1 {
		t.Errorf("unexpected summary: %+v", resp)
	}
	if got := e.users.get(2).Points.Total; got != 15 {
		t.Errorf("total = %d, want 15", got)
	}
}

func TestLeaderboards(t *testing.T) {
	a := alumnus(2, "Ann")
	a.Points = points.Balance{Referrals: 90, Total: 90}
	a.LastYearPoints = &points.Snapshot{Year: 2024, Total: 10}
	b := alumnus(3, "Ben")
	b.Points = points.Balance{Referrals: 40, Total: 40}
	b.LastYearPoints = &points.Snapshot{Year: 2024, Total: 70}
	c := alumnus(4, "Cat")
	pending := alumnus(5, "Dan")
	pending.Approved = false
	pending.Points = points.Balance{Referrals: 200, Total: 200}
	e := newEnv(a, b, c, pending)
	ctx := context.Background()

	board, err := e.points.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].ID != 2 || board[0].Rank != 1 || board[1].ID != 3 {
		t.Errorf("Leaderboard = %+v", board)
	}

	last, _ := e.points.LastYearLeaderboard(ctx)
	if len(last) != 2 || last[0].ID != 3 || last[0].Total != 70 {
		t.Errorf("LastYearLeaderboard = %+v", last)
	}

	eligible, _ := e.points.AwardEligible(ctx)
	if len(eligible) != 2 || eligible[0].ID != 5 || eligible[1].ID != 2 {
		t.Errorf("AwardEligible = %+v", eligible)
	}
}

func configureWindow(t *testing.T, s RolloverService, year int, from, to time.Time) {
	t.Helper()
	_, err := s.ConfigureWindow(context.Background(), &dto.RolloverConfigRequest{Year: year, StartDate: from, EndDate: to})
	if err != nil {
		t.Fatalf("ConfigureWindow: %v", err)
	}
}

func TestRolloverExecutesOncePerYear(t *testing.T) {
	a := alumnus(2, "Ann")
	a.Points = points.Balance{Referrals: 30, Total: 30}
	a.ProfileCompletionAwarded = true
	a.PostPointLog = []time.Time{testNow}
	e := newEnv(mainAdmin(1), a, faculty(3, "Fay"))
	ctx := context.Background()

	start := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	svc := e.rolloverService(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC))

	if _, err := svc.Execute(ctx, 2025, TriggerManual); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Fatalf("unconfigured year: expected bad request, got %v", err)
	}

	configureWindow(t, svc, 2025, start, end)
	resp, err := svc.Execute(ctx, 2025, TriggerManual)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.UsersProcessed != 1 || resp.UsersFailed != 0 {
		t.Errorf("unexpected summary: %+v", resp)
	}

	u := e.users.get(2)
	if u.Points.Total != 0 || u.LastYearPoints == nil || u.LastYearPoints.Total != 30 || u.LastYearPoints.Year != 2025 {
		t.Errorf("ledger not rolled over: %+v / %+v", u.Points, u.LastYearPoints)
	}
	if u.ProfileCompletionAwarded || len(u.PostPointLog) != 0 {
		t.Errorf("yearly flags not reset")
	}
	if e.configs.cfg == nil || e.configs.cfg.LastRolloverExecutedAt == nil {
		t.Errorf("rollover time not recorded on configuration")
	}

	if _, err := svc.Execute(ctx, 2025, TriggerManual); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("second run: expected bad request, got %v", err)
	}
	if e.users.get(2).LastYearPoints.Total != 30 {
		t.Errorf("second run overwrote the snapshot")
	}

	configureWindow(t, svc, 2025, start, end)
	if _, err := svc.ExecuteCurrentYear(ctx, TriggerManual); err != nil {
		t.Errorf("reconfigured window should re-arm the rollover: %v", err)
	}
}

func TestRolloverOutsideWindow(t *testing.T) {
	e := newEnv(alumnus(2, "Ann"))
	svc := e.rolloverService(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))
	configureWindow(t, svc, 2025,
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))

	_, err := svc.Execute(context.Background(), 2025, TriggerManual)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if e.windows.rows[2025].HasExecuted {
		t.Errorf("refused run claimed the window")
	}
}

func TestConfigureWindowValidates(t *testing.T) {
	e := newEnv()
	svc := e.rolloverService(testNow)
	_, err := svc.ConfigureWindow(context.Background(), &dto.RolloverConfigRequest{
		Year:      2025,
		StartDate: testNow,
		EndDate:   testNow.Add(-time.Hour),
	})
	if err == nil {
		t.Fatal("expected an error for an inverted window")
	}
}

func TestRunIfDue(t *testing.T) {
	e := newEnv(alumnus(2, "Ann"))
	ctx := context.Background()
	early := e.rolloverService(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	configureWindow(t, early, 2025,
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))

	if ran, err := early.RunIfDue(ctx); ran || err != nil {
		t.Errorf("before window: RunIfDue = %v, %v", ran, err)
	}

	due := e.rolloverService(time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC))
	if ran, err := due.RunIfDue(ctx); !ran || err != nil {
		t.Errorf("inside window: RunIfDue = %v, %v", ran, err)
	}
	if ran, err := due.RunIfDue(ctx); ran || err != nil {
		t.Errorf("after execution: RunIfDue = %v, %v", ran, err)
	}

	unconfigured := e.rolloverService(time.Date(2026, 12, 2, 0, 0, 0, 0, time.UTC))
	if ran, err := unconfigured.RunIfDue(ctx); ran || err != nil {
		t.Errorf("unconfigured year: RunIfDue = %v, %v", ran, err)
	}
}
