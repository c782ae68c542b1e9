package content

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

func TestIsEmoji(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"👍", true},
		{"❤️", true},
		{"👍🏽", true},
		{"👨‍👩‍👧", true},
		{"🇹🇷", true},
		{"1️⃣", true},
		{"😂", true},
		{"", false},
		{"a", false},
		{"ok", false},
		{"1", false},
		{"👍👍", false},
		{"👍a", false},
		{" ", false},
	}

	for _, tt := range tests {
		if got := IsEmoji(tt.in); got != tt.want {
			t.Errorf("IsEmoji(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReactToggleAndSwitch(t *testing.T) {
	r := Reactions{}

	r, change, err := r.React(1, "👍")
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if change.Current != "👍" || change.Previous != "" {
		t.Fatalf("unexpected change on first react: %+v", change)
	}

	r, change, _ = r.React(1, "👍")
	if !change.ToggledOff() {
		t.Fatalf("expected toggle off, got %+v", change)
	}
	if r.Count() != 0 {
		t.Fatalf("expected no reactions after toggle off, got %v", r)
	}

	r, _, _ = r.React(1, "👍")
	r, change, _ = r.React(1, "🎉")
	if !change.Switched() || change.Previous != "👍" || change.Current != "🎉" {
		t.Fatalf("expected switch, got %+v", change)
	}
	if _, ok := r["👍"]; ok {
		t.Errorf("old emoji bucket should be gone: %v", r)
	}
	if got, _ := r.UserReaction(1); got != "🎉" {
		t.Errorf("expected user to hold 🎉, got %q", got)
	}
	if r.Count() != 1 {
		t.Errorf("expected exactly one reaction, got %d", r.Count())
	}
}

func TestReactKeepsOtherUsersInOrder(t *testing.T) {
	r := Reactions{"👍": {5, 3}}
	r, _, _ = r.React(7, "👍")
	r, _, _ = r.React(3, "❤️")

	want := []int64{5, 7}
	got := r["👍"]
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReactRejectsInvalidEmoji(t *testing.T) {
	r := Reactions{}
	if _, _, err := r.React(1, "like"); !errors.Is(err, apperrors.ErrInvalidEmoji) {
		t.Fatalf("expected ErrInvalidEmoji, got %v", err)
	}
}

func TestSanitizedStripsBadKeysAndDuplicates(t *testing.T) {
	r := Reactions{
		"like":  {1},
		"👍":     {2, 2, 0, 5},
		"🎉":     {2, 3},
		"":      {4},
		"👍 👍": {9},
	}

	clean := r.Sanitized()
	if len(clean) != 2 {
		t.Fatalf("expected 2 keys, got %v", clean)
	}
	// 🎉 sorts before 👍, so user 2 stays under 🎉 only.
	if ids := clean["🎉"]; len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Errorf("expected 🎉 -> [2 3], got %v", ids)
	}
	if ids := clean["👍"]; len(ids) != 1 || ids[0] != 5 {
		t.Errorf("expected 👍 -> [5], got %v", ids)
	}
}

func TestReactionsJSONBoundarySanitizes(t *testing.T) {
	raw := []byte(`{"👍":[1,2],"bad":[3]}`)

	var r Reactions
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := r["bad"]; ok {
		t.Errorf("invalid key survived decoding")
	}

	r["oops"] = []int64{4}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"👍":[1,2]}` {
		t.Errorf("unexpected encoding %s", out)
	}
}
