package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	pkgauth "github.com/yigit/alumnet/internal/pkg/auth"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

func TestMain(m *testing.M) {
	pkgauth.BcryptCost = 4
	os.Exit(m.Run())
}

func TestSignupRoleRequirements(t *testing.T) {
	e := newEnv()
	svc, _ := e.authService()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.SignupRequest
		wantErr error
	}{
		{"alumni without enrollment", dto.SignupRequest{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: "alumni"}, apperrors.ErrValidationFailed},
		{"faculty without employee id", dto.SignupRequest{Name: "Bob", Email: "bob@example.com", Password: "secret1", Role: "faculty"}, apperrors.ErrValidationFailed},
		{"admin role", dto.SignupRequest{Name: "Eve", Email: "eve@example.com", Password: "secret1", Role: "admin", EmployeeID: "E1"}, apperrors.ErrValidationFailed},
		{"alumni ok", dto.SignupRequest{Name: "Cat", Email: " Cat@Example.com ", Password: "secret1", Role: "alumni", EnrollmentNumber: "ENR1"}, nil},
		{"duplicate email", dto.SignupRequest{Name: "Cat", Email: "cat@example.com", Password: "secret1", Role: "alumni", EnrollmentNumber: "ENR2"}, apperrors.ErrEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Signup(ctx, &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Signup: %v", err)
			}
			u := e.users.get(resp.ID)
			if u.Email != "cat@example.com" || u.Approved || u.Password == "secret1" {
				t.Errorf("stored user not normalized and pending: %+v", u)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	hash, _ := pkgauth.HashPassword("secret1")
	pending := alumnus(1, "Pending")
	pending.Approved = false
	pending.Password = hash
	active := alumnus(2, "Active")
	active.Password = hash

	e := newEnv(pending, active)
	svc, _ := e.authService()
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "active@example.com", Password: "wrong"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "pending@example.com", Password: "secret1"}); !errors.Is(err, apperrors.ErrAccountNotApproved) {
		t.Errorf("unapproved: expected not approved, got %v", err)
	}

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "Active@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.User.ID != 2 || resp.Token.AccessToken == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if _, ok := e.tokens.rows[resp.Token.RefreshToken]; !ok {
		t.Errorf("refresh token was not stored")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"))
	svc, _ := e.authService()
	ctx := context.Background()
	_ = e.tokens.CreateToken(ctx, "old", 1, testNow.Add(time.Hour))

	resp, err := svc.RefreshToken(ctx, "old")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if resp.RefreshToken == "old" {
		t.Errorf("refresh token was not rotated")
	}
	if _, err := svc.RefreshToken(ctx, "old"); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Errorf("reusing rotated token: expected revoked, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	hash, _ := pkgauth.HashPassword("secret1")
	u := alumnus(1, "Ann")
	u.Password = hash
	e := newEnv(u)
	svc, _ := e.authService()
	ctx := context.Background()

	err := svc.ChangePassword(ctx, 1, &dto.ChangePasswordRequest{OldPassword: "nope", NewPassword: "secret2"})
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Fatalf("wrong old password: expected bad request, got %v", err)
	}
	if err := svc.ChangePassword(ctx, 1, &dto.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !pkgauth.CheckPassword(e.users.get(1).Password, "secret2") {
		t.Errorf("password was not changed")
	}
}

func TestForgotAndResetWithOTP(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"))
	svc, _ := e.authService()
	ctx := context.Background()

	if err := svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ghost@example.com"}); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("unknown email: expected not found, got %v", err)
	}
	if err := svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@example.com"}); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if len(e.mailer.sent) != 1 || e.mailer.sent[0].kind != "otp" {
		t.Fatalf("expected one otp email, got %+v", e.mailer.sent)
	}
	code := e.mailer.sent[0].otp
	if len(code) != pkgauth.OTPLength {
		t.Fatalf("unexpected code %q", code)
	}
	if e.otps.rows[0].CodeHash == code {
		t.Errorf("otp stored in plain text")
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := svc.ResetPasswordWithOTP(ctx, &dto.ResetPasswordWithOTPRequest{Email: "ann@example.com", OTP: wrong, NewPassword: "brandnew"})
	if !errors.Is(err, apperrors.ErrInvalidOTP) {
		t.Fatalf("wrong code: expected invalid otp, got %v", err)
	}

	if err := svc.ResetPasswordWithOTP(ctx, &dto.ResetPasswordWithOTPRequest{Email: "ann@example.com", OTP: code, NewPassword: "brandnew"}); err != nil {
		t.Fatalf("ResetPasswordWithOTP: %v", err)
	}
	if !pkgauth.CheckPassword(e.users.get(1).Password, "brandnew") {
		t.Errorf("password was not reset")
	}
	err = svc.ResetPasswordWithOTP(ctx, &dto.ResetPasswordWithOTPRequest{Email: "ann@example.com", OTP: code, NewPassword: "again123"})
	if !errors.Is(err, apperrors.ErrInvalidOTP) {
		t.Errorf("reused code: expected invalid otp, got %v", err)
	}
}

func TestResetWithExpiredOTP(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"))
	svc, _ := e.authService()
	ctx := context.Background()

	if err := svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@example.com"}); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	svc.now = func() time.Time { return testNow.Add(OTPExpiry + time.Second) }

	err := svc.ResetPasswordWithOTP(ctx, &dto.ResetPasswordWithOTPRequest{Email: "ann@example.com", OTP: e.mailer.sent[0].otp, NewPassword: "brandnew"})
	if !errors.Is(err, apperrors.ErrInvalidOTP) {
		t.Errorf("expired code: expected invalid otp, got %v", err)
	}
}

func TestNewerOTPInvalidatesOlder(t *testing.T) {
	e := newEnv(alumnus(1, "Ann"))
	svc, _ := e.authService()
	ctx := context.Background()

	_ = svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@example.com"})
	_ = svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "ann@example.com"})
	first, second := e.mailer.sent[0].otp, e.mailer.sent[1].otp
	if first == second {
		t.Skip("both codes collided")
	}

	err := svc.ResetPasswordWithOTP(ctx, &dto.ResetPasswordWithOTPRequest{Email: "ann@example.com", OTP: first, NewPassword: "brandnew"})
	if !errors.Is(err, apperrors.ErrInvalidOTP) {
		t.Errorf("older code: expected invalid otp, got %v", err)
	}
	if u := e.users.get(1); u.Role != models.RoleAlumni {
		t.Errorf("user changed unexpectedly: %+v", u)
	}
}
