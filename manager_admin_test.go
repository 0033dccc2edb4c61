package authgate

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestCreateUser(t *testing.T) {
	fx := newTestManager(t, nil)
	ctx := context.Background()

	u, err := fx.manager.CreateUser(ctx, CreateUserInput{
		Username:    "carol",
		Email:       "carol@example.com",
		Password:    "carol-password-1",
		Roles:       []string{"operator"},
		Permissions: []string{"debug.access"},
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected assigned id")
	}
	if u.PasswordHash != "" {
		t.Fatal("password hash leaked through result")
	}
	if !u.Active {
		t.Fatal("new users start active")
	}

	// Role grants fold into the permission set alongside direct grants.
	for _, want := range []string{"debug.access", "config.read", "agent.control"} {
		if !slices.Contains(u.Permissions, want) {
			t.Fatalf("missing permission %q in %v", want, u.Permissions)
		}
	}

	stored, err := fx.users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("stored user lookup: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "carol-password-1" {
		t.Fatal("expected stored password to be hashed")
	}
	ok, err := fx.manager.hasher.Verify("carol-password-1", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	fx := newTestManager(t, nil)
	ctx := context.Background()

	if _, err := fx.manager.CreateUser(ctx, CreateUserInput{Username: "", Password: "x"}); err == nil {
		t.Fatal("empty username accepted")
	}
	if _, err := fx.manager.CreateUser(ctx, CreateUserInput{Username: "x", Password: ""}); err == nil {
		t.Fatal("empty password accepted")
	}
	if _, err := fx.manager.CreateUser(ctx, CreateUserInput{
		Username: "x", Password: "pw-123456", Roles: []string{"no-such-role"},
	}); err == nil {
		t.Fatal("unknown role accepted")
	}
	if _, err := fx.manager.CreateUser(ctx, CreateUserInput{
		Username: "x", Password: "pw-123456", Permissions: []string{"no.such.permission"},
	}); err == nil {
		t.Fatal("unregistered permission accepted")
	}

	// The bypass roles need no role-table entry.
	if _, err := fx.manager.CreateUser(ctx, CreateUserInput{
		Username: "root2", Password: "pw-123456", Roles: []string{"admin"},
	}); err != nil {
		t.Fatalf("admin role rejected: %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	fx := newTestManager(t, nil)
	ctx := context.Background()

	_, err := fx.manager.CreateUser(ctx, CreateUserInput{Username: "alice", Password: "pw-123456"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("got %v, want ErrUserExists", err)
	}

	// Duplicate detection is case-insensitive.
	_, err = fx.manager.CreateUser(ctx, CreateUserInput{Username: "ALICE", Password: "pw-123456"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("got %v, want ErrUserExists for case variant", err)
	}
}

func TestGetUserStripsHash(t *testing.T) {
	fx := newTestManager(t, nil)
	ctx := context.Background()

	u, err := fx.manager.GetUser(ctx, "user-alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Username != "alice" || u.PasswordHash != "" {
		t.Fatalf("unexpected user view: %+v", u)
	}

	if _, err := fx.manager.GetUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestSeededAdminScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("test-secret")
	cfg.Audit.Enabled = false
	cfg.Bootstrap.SeedDefaultAdmin = true
	cfg.Bootstrap.AdminPassword = "bootstrap-password"

	users := newMemoryUserStore()
	build := func() *Manager {
		m, err := New().WithConfig(cfg).WithUserStore(users).Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return m
	}

	m := build()
	defer m.Close()
	ctx := context.Background()

	admin, err := m.GetUser(ctx, "admin-default")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if admin.Username != "admin" || !admin.Active {
		t.Fatalf("unexpected admin record: %+v", admin)
	}
	if !slices.Contains(admin.Roles, "admin") || !slices.Contains(admin.Roles, "system") {
		t.Fatalf("admin roles = %v", admin.Roles)
	}

	res, err := m.Authenticate(ctx, "admin", "bootstrap-password")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected token")
	}

	if _, err := m.Authenticate(ctx, "admin", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if got := m.limiter.Failures("admin"); got != 1 {
		t.Fatalf("failure count = %d, want 1", got)
	}

	// Seeding against the same backing store is idempotent.
	m2 := build()
	m2.Close()
	again, err := m2.GetUser(ctx, "admin-default")
	if err != nil {
		t.Fatalf("admin after reseed: %v", err)
	}
	if !again.Created.Equal(admin.Created) {
		t.Fatal("reseeding replaced the existing admin")
	}
}

func TestSetUserActiveUnknown(t *testing.T) {
	fx := newTestManager(t, nil)
	if err := fx.manager.SetUserActive(context.Background(), "missing", false); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}
