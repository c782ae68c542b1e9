package points

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

var rules = Rules{
	ProfileCompletionPoints: 50,
	ConnectionPoints:        10,
	PostPoints:              5,
	PostLimitCount:          2,
	PostLimitDays:           7,
}

func assertTotal(t *testing.T, b Balance) {
	t.Helper()
	if b.Total != b.Sum() {
		t.Fatalf("total %d does not match sum %d", b.Total, b.Sum())
	}
}

func TestAwardKeepsTotalDerived(t *testing.T) {
	var b Balance
	for i, c := range Categories {
		if err := b.Award(c, i+1); err != nil {
			t.Fatalf("Award(%s): %v", c, err)
		}
		assertTotal(t, b)
	}
	if b.Total != 28 {
		t.Errorf("expected total 28, got %d", b.Total)
	}
	if err := b.Award("bogus", 5); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("expected validation error for unknown category, got %v", err)
	}
}

func TestRecomputeTotalRepairsDrift(t *testing.T) {
	b := Balance{Referrals: 4, CampusEngagement: 6, Total: 99}
	if !b.RecomputeTotal() {
		t.Fatalf("expected drift to be reported")
	}
	if b.Total != 10 {
		t.Errorf("expected 10, got %d", b.Total)
	}
	if b.RecomputeTotal() {
		t.Errorf("no drift expected after repair")
	}
}

func TestPostRateLimit(t *testing.T) {
	var l Ledger
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < rules.PostLimitCount; i++ {
		if got := l.AwardPost(rules, start.Add(time.Duration(i)*time.Hour)); got != rules.PostPoints {
			t.Fatalf("award %d: expected %d points, got %d", i+1, rules.PostPoints, got)
		}
	}
	if got := l.AwardPost(rules, start.Add(3*time.Hour)); got != 0 {
		t.Fatalf("expected the over-limit award to grant 0, got %d", got)
	}
	assertTotal(t, l.Balance)
	if l.Balance.ContentContribution != 10 {
		t.Errorf("expected 10 content points, got %d", l.Balance.ContentContribution)
	}

	// once the window slides past the first entries the reward is granted again
	later := start.Add(8 * 24 * time.Hour)
	if got := l.AwardPost(rules, later); got != rules.PostPoints {
		t.Errorf("expected award after window, got %d", got)
	}
	if len(l.PostLog) != 1 {
		t.Errorf("expected stale log entries to be trimmed, got %d", len(l.PostLog))
	}
}

func completeProfile() ProfileChecklist {
	return ProfileChecklist{
		ProfilePicture: "p.png",
		BannerImage:    "b.png",
		Phone:          "1",
		WhatsApp:       "2",
		LinkedIn:       "in/x",
		Address:        "street",
		Bio:            "bio",
		Education:      []EducationEntry{{Degree: "BSc", Institution: "U"}, {Degree: "MSc", Institution: "U"}},
		Experience:     []ExperienceEntry{{Title: "Engineer", Company: "Acme"}},
	}
}

func TestProfileChecklist(t *testing.T) {
	if !completeProfile().Complete() {
		t.Fatalf("expected complete profile")
	}

	missingBio := completeProfile()
	missingBio.Bio = " "
	oneEducation := completeProfile()
	oneEducation.Education[1].Institution = ""
	noExperience := completeProfile()
	noExperience.Experience = nil

	for name, p := range map[string]ProfileChecklist{
		"missing bio":   missingBio,
		"one education": oneEducation,
		"no experience": noExperience,
	} {
		if p.Complete() {
			t.Errorf("%s: expected incomplete", name)
		}
	}
}

func TestProfileCompletionAwardedOnce(t *testing.T) {
	var l Ledger
	if got := l.AwardProfileCompletion(rules, completeProfile()); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := l.AwardProfileCompletion(rules, completeProfile()); got != 0 {
		t.Fatalf("expected no second award, got %d", got)
	}
	assertTotal(t, l.Balance)
}

func TestRolloverSnapshotsAndResets(t *testing.T) {
	l := Ledger{ProfileCompletionAwarded: true, PostLog: []time.Time{time.Now()}}
	_ = l.Balance.Award(Referrals, 30)
	_ = l.Balance.Award(AlumniParticipation, 12)

	l.Rollover(2024)

	if l.LastYear == nil || l.LastYear.Year != 2024 || l.LastYear.Total != 42 {
		t.Fatalf("unexpected snapshot %+v", l.LastYear)
	}
	if l.Balance != (Balance{}) {
		t.Errorf("expected zeroed balance, got %+v", l.Balance)
	}
	if l.ProfileCompletionAwarded || len(l.PostLog) != 0 {
		t.Errorf("expected flag and log to be reset")
	}
}

func TestRolloverWindow(t *testing.T) {
	start := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	w := &RolloverWindow{Year: 2025, StartDate: start, EndDate: start.Add(14 * 24 * time.Hour)}

	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := w.CheckRunnable(start.Add(time.Hour)); err != nil {
		t.Fatalf("expected runnable inside window: %v", err)
	}
	if err := w.CheckRunnable(start.Add(-time.Hour)); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("expected forbidden outside window, got %v", err)
	}

	w.HasExecuted = true
	if err := w.CheckRunnable(start.Add(time.Hour)); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("expected rejection after execution, got %v", err)
	}

	var missing *RolloverWindow
	if err := missing.CheckRunnable(start); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("expected rejection when unconfigured, got %v", err)
	}

	bad := RolloverWindow{Year: 2025, StartDate: start, EndDate: start}
	if err := bad.Validate(); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("expected validation error, got %v", err)
	}
}
