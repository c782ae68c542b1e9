package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	Emoji    string `json:"emoji" validate:"required,emoji"`
	Role     string `json:"role" validate:"required,role_signup"`
	Category string `json:"category" validate:"points_category"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := Register(v); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return v
}

func TestRules(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{name: "valid", in: sample{Emoji: "👍", Role: "alumni", Category: "referrals"}},
		{name: "empty category allowed", in: sample{Emoji: "❤️", Role: "faculty"}},
		{name: "text is not emoji", in: sample{Emoji: "ok", Role: "alumni"}, wantField: "emoji"},
		{name: "two emojis", in: sample{Emoji: "👍👍", Role: "alumni"}, wantField: "emoji"},
		{name: "admin signup refused", in: sample{Emoji: "👍", Role: "admin"}, wantField: "role"},
		{name: "unknown category", in: sample{Emoji: "👍", Role: "alumni", Category: "bonus"}, wantField: "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) != 1 {
				t.Fatalf("expected one validation error, got %v", err)
			}
			if verrs[0].Field() != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field(), tt.wantField)
			}
		})
	}
}
