package authgate

import (
	"fmt"
	"time"

	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/session"
)

// TokenConfig controls bearer token issuance.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 signing key. When left empty the
	// builder generates a random 32-byte key at Build time, which
	// means tokens do not survive a process restart.
	Secret []byte
}

// SessionConfig controls the session store defaults. The values only
// apply to stores the builder constructs itself; an injected store
// keeps whatever configuration it was built with.
type SessionConfig struct {
	Timeout     time.Duration
	MaxPerUser  int
	RedisPrefix string

	// SweepSchedule, when non-empty, is a cron expression that runs
	// Store.Sweep in the background. Empty disables scheduled sweeps;
	// the store still reclaims expired sessions lazily on create.
	SweepSchedule string
}

// SecurityConfig controls the failed-login limiter.
type SecurityConfig struct {
	MaxLoginAttempts int
	LockoutWindow    time.Duration
}

// BootstrapConfig controls first-run provisioning.
type BootstrapConfig struct {
	// SeedDefaultAdmin creates the built-in admin account at Build
	// time when no user with that id exists yet.
	SeedDefaultAdmin bool
	AdminPassword    string
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int

	// DropIfFull drops events when the buffer is saturated instead of
	// blocking the calling goroutine.
	DropIfFull bool
}

// MetricsConfig controls counter and latency collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config is the full Manager configuration. Zero value is not usable;
// start from DefaultConfig and override fields.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Security SecurityConfig

	Bootstrap BootstrapConfig
	Audit     AuditConfig
	Metrics   MetricsConfig

	// RequireMFA is reserved. Authentication currently ignores it but
	// the flag is carried so callers can gate their own second factor.
	RequireMFA bool

	// AllowGuestAccess lets the HTTP middleware pass unauthenticated
	// requests through with a guest identity instead of rejecting them.
	AllowGuestAccess bool
}

// DefaultConfig returns the stock configuration: 24h sessions capped at
// 5 per user, 5 failed logins per 15 minute lockout window, audit and
// metrics enabled.
func DefaultConfig() Config {
	sess := session.DefaultConfig()
	sec := rate.DefaultConfig()
	return Config{
		Session: SessionConfig{
			Timeout:     sess.Timeout,
			MaxPerUser:  sess.MaxPerUser,
			RedisPrefix: sess.RedisPrefix,
		},
		Security: SecurityConfig{
			MaxLoginAttempts: sec.MaxAttempts,
			LockoutWindow:    sec.Window,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Session.Timeout <= 0 {
		return fmt.Errorf("authgate: session timeout must be positive, got %v", cfg.Session.Timeout)
	}
	if cfg.Session.MaxPerUser <= 0 {
		return fmt.Errorf("authgate: max sessions per user must be positive, got %d", cfg.Session.MaxPerUser)
	}
	if cfg.Security.MaxLoginAttempts <= 0 {
		return fmt.Errorf("authgate: max login attempts must be positive, got %d", cfg.Security.MaxLoginAttempts)
	}
	if cfg.Security.LockoutWindow <= 0 {
		return fmt.Errorf("authgate: lockout window must be positive, got %v", cfg.Security.LockoutWindow)
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return fmt.Errorf("authgate: audit buffer size must be positive, got %d", cfg.Audit.BufferSize)
	}
	if cfg.Bootstrap.SeedDefaultAdmin && cfg.Bootstrap.AdminPassword == "" {
		return fmt.Errorf("authgate: bootstrap admin password must be set when seeding is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Token.Secret != nil {
		out.Token.Secret = append([]byte(nil), cfg.Token.Secret...)
	}
	return out
}
