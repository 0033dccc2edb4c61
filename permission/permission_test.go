package permission

import "testing"

func TestAllowedAdminBypass(t *testing.T) {
	roles := []string{"admin"}
	perms := []string{"config.read"}

	if !Allowed(roles, perms, "anything:not-in-list") {
		t.Fatal("admin role must satisfy any permission check")
	}
	if !Allowed([]string{"system"}, nil, "secret.manage") {
		t.Fatal("system role must satisfy any permission check")
	}
}

func TestAllowedMembership(t *testing.T) {
	roles := []string{"operator"}
	perms := []string{"config.read", "agent.control"}

	if !Allowed(roles, perms, "agent.control") {
		t.Fatal("granted permission rejected")
	}
	if Allowed(roles, perms, "config.write") {
		t.Fatal("ungranted permission accepted")
	}
	if Allowed(nil, nil, "config.read") {
		t.Fatal("empty grants accepted")
	}
}

func TestHasRole(t *testing.T) {
	if !HasRole([]string{"admin", "system"}, "system") {
		t.Fatal("expected role membership")
	}
	if HasRole([]string{"admin"}, "operator") {
		t.Fatal("unexpected role membership")
	}
}

func TestRegistryRegisterAndFreeze(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("config.read"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register("config.read"); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if err := r.Register(""); err == nil {
		t.Fatal("empty name accepted")
	}
	if !r.Has("config.read") {
		t.Fatal("registered permission not found")
	}

	r.Freeze()
	if err := r.Register("config.write"); err == nil {
		t.Fatal("registration accepted after freeze")
	}
}

func TestRolesGrants(t *testing.T) {
	reg := NewRegistry()
	for _, p := range []string{"config.read", "config.write", "debug.access"} {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	roles := NewRoles(reg)
	if err := roles.Register("viewer", []string{"config.read"}); err != nil {
		t.Fatalf("Register role failed: %v", err)
	}
	if err := roles.Register("operator", []string{"config.read", "config.write"}); err != nil {
		t.Fatalf("Register role failed: %v", err)
	}
	if err := roles.Register("broken", []string{"not.registered"}); err == nil {
		t.Fatal("role with unknown permission accepted")
	}

	got := roles.Grants([]string{"viewer", "operator"})
	want := []string{"config.read", "config.write"}
	if len(got) != len(want) {
		t.Fatalf("grants mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("grants mismatch at %d: got %v want %v", i, got, want)
		}
	}

	if !roles.Known("admin") {
		t.Fatal("bypass roles must always be known")
	}
	if roles.Known("ghost") {
		t.Fatal("unregistered role reported known")
	}
}
