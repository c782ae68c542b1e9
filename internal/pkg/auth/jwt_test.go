package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

func newTestService(now time.Time) *JWTService {
	s := NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "alumnet",
	})
	s.now = func() time.Time { return now }
	return s
}

func TestGenerateAndValidateToken(t *testing.T) {
	now := time.Now()
	s := newTestService(now)

	pair, err := s.GenerateTokenPair(Identity{UserID: 42, Email: "a@b.c", Role: "admin", IsAdmin: true, IsMainAdmin: true})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.RefreshToken == "" || pair.ExpiresIn != 3600 {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	claims, err := s.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "admin" || !claims.IsAdmin || !claims.IsMainAdmin {
		t.Errorf("claims not round-tripped: %+v", claims)
	}
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	pair, err := newTestService(issued).GenerateTokenPair(Identity{UserID: 1, Email: "x@y.z"})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	if _, err := newTestService(time.Now()).ValidateToken(pair.AccessToken); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("expected expired, got %v", err)
	}

	other := newTestService(issued)
	other.config.SecretKey = "another-secret"
	if _, err := other.ValidateToken(pair.AccessToken); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("expected invalid signature, got %v", err)
	}

	if _, err := newTestService(time.Now()).ValidateToken("not-a-token"); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("expected invalid, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"abc", "abc", false},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, %v", tt.header, got, err)
		}
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(code) != OTPLength || strings.Trim(code, "0123456789") != "" {
			t.Fatalf("bad code %q", code)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = 4
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "secret123") || CheckPassword(hash, "wrong") {
		t.Error("password check mismatch")
	}
}
