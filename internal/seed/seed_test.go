package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/auth"
)

type fakeUsers struct {
	byEmail map[string]*models.User
	created int
	updated int
	nextID  int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}, nextID: 1}
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	u.ID = f.nextID
	f.nextID++
	f.byEmail[u.Email] = u
	f.created++
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, u *models.User) error {
	f.byEmail[u.Email] = u
	f.updated++
	return nil
}

type fakeConfigs struct {
	stored *models.PointsConfig
	err    error
}

func (f *fakeConfigs) CreateIfMissing(ctx context.Context, c *models.PointsConfig) error {
	if f.err != nil {
		return f.err
	}
	if f.stored == nil {
		f.stored = c
	}
	return nil
}

var testAdmin = MainAdmin{
	Name:       "Main Admin",
	Email:      " Admin@Example.com ",
	Password:   "Secret123!",
	EmployeeID: "EMP001",
}

func TestEnsureMainAdminCreates(t *testing.T) {
	users := newFakeUsers()

	if err := EnsureMainAdmin(context.Background(), users, testAdmin, zerolog.Nop()); err != nil {
		t.Fatalf("EnsureMainAdmin: %v", err)
	}

	u, ok := users.byEmail["admin@example.com"]
	if !ok {
		t.Fatal("main admin was not created under the normalized email")
	}
	if !u.IsMainAdmin || !u.IsAdmin || !u.Approved || u.Role != models.RoleAdmin {
		t.Errorf("unexpected flags: %+v", u)
	}
	if !auth.CheckPassword(u.Password, testAdmin.Password) {
		t.Error("password was not hashed with bcrypt")
	}

	// a second run is a no-op
	if err := EnsureMainAdmin(context.Background(), users, testAdmin, zerolog.Nop()); err != nil {
		t.Fatalf("EnsureMainAdmin rerun: %v", err)
	}
	if users.created != 1 || users.updated != 0 {
		t.Errorf("expected 1 create and 0 updates, got %d/%d", users.created, users.updated)
	}
}

func TestEnsureMainAdminUpgradesExisting(t *testing.T) {
	users := newFakeUsers()
	users.byEmail["admin@example.com"] = &models.User{ID: 7, Email: "admin@example.com", Role: models.RoleFaculty}

	if err := EnsureMainAdmin(context.Background(), users, testAdmin, zerolog.Nop()); err != nil {
		t.Fatalf("EnsureMainAdmin: %v", err)
	}

	u := users.byEmail["admin@example.com"]
	if u.ID != 7 || !u.IsMainAdmin || !u.IsAdmin || !u.Approved || u.Role != models.RoleAdmin {
		t.Errorf("account not upgraded: %+v", u)
	}
	if users.created != 0 || users.updated != 1 {
		t.Errorf("expected an update only, got %d creates, %d updates", users.created, users.updated)
	}
}

func TestEnsureMainAdminSkipsWhenUnconfigured(t *testing.T) {
	users := newFakeUsers()
	if err := EnsureMainAdmin(context.Background(), users, MainAdmin{Email: "a@b.c"}, zerolog.Nop()); err != nil {
		t.Fatalf("EnsureMainAdmin: %v", err)
	}
	if users.created != 0 {
		t.Error("admin created without a password")
	}
}

func TestCreateDefaultDataCollectsErrors(t *testing.T) {
	users := newFakeUsers()
	configs := &fakeConfigs{err: errors.New("db down")}

	err := CreateDefaultData(context.Background(), users, configs, testAdmin, models.PointsConfig{PostLimitCount: 2, PostLimitDays: 7}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected the config error to be returned")
	}
	if users.created != 1 {
		t.Error("main admin should still be created when the config insert fails")
	}

	configs.err = nil
	if err := CreateDefaultData(context.Background(), users, configs, testAdmin, models.PointsConfig{PostLimitCount: 2, PostLimitDays: 7}, zerolog.Nop()); err != nil {
		t.Fatalf("CreateDefaultData: %v", err)
	}
	if configs.stored == nil || configs.stored.PostLimitDays != 7 {
		t.Errorf("points config not stored: %+v", configs.stored)
	}
}
