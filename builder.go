package authgate

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/password"
	"github.com/MrEthical07/authgate/permission"
	"github.com/MrEthical07/authgate/session"
	"github.com/MrEthical07/authgate/token"
	"github.com/redis/go-redis/v9"
)

// defaultPermissions seed the registry when the builder receives none.
var defaultPermissions = []string{
	"config.read",
	"config.write",
	"agent.control",
	"debug.access",
	"user.manage",
	"secret.manage",
}

// defaultRoles map role names to granted permissions. The admin and
// system roles bypass permission checks entirely and need no grants.
var defaultRoles = map[string][]string{
	"operator": {"config.read", "agent.control"},
	"viewer":   {"config.read"},
}

// Builder assembles a Manager. Chain With* calls and finish with Build;
// a Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	permissions []string
	roles       map[string][]string

	users    UserStore
	verifier CredentialVerifier
	sessions session.Store

	auditSink AuditSink
	clock     func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the session store with Redis instead of process
// memory. Ignored when WithSessionStore supplies a store directly.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithPermissions(perms []string) *Builder {
	b.permissions = perms
	return b
}

func (b *Builder) WithRoles(r map[string][]string) *Builder {
	b.roles = r
	return b
}

func (b *Builder) WithUserStore(us UserStore) *Builder {
	b.users = us
	return b
}

// WithVerifier overrides credential checking. Without it the Manager
// verifies argon2id hashes stored on the user records.
func (b *Builder) WithVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

func (b *Builder) WithSessionStore(st session.Store) *Builder {
	b.sessions = st
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock replaces the time source. Tests use it to control session
// expiry and lockout windows.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)

	if len(cfg.Token.Secret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("authgate: generate token secret: %w", err)
		}
		cfg.Token.Secret = secret
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	// -------- PERMISSION REGISTRY --------
	perms := b.permissions
	if len(perms) == 0 {
		perms = defaultPermissions
	}
	registry := permission.NewRegistry()
	for _, p := range perms {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	// -------- ROLE TABLE --------
	roleDefs := b.roles
	if roleDefs == nil {
		roleDefs = defaultRoles
	}
	roles := permission.NewRoles(registry)
	for name, grants := range roleDefs {
		if err := roles.Register(name, grants); err != nil {
			return nil, err
		}
	}
	roles.Freeze()

	// -------- SESSION STORE --------
	sessions := b.sessions
	if sessions == nil {
		sessCfg := session.Config{
			Timeout:     cfg.Session.Timeout,
			MaxPerUser:  cfg.Session.MaxPerUser,
			RedisPrefix: cfg.Session.RedisPrefix,
		}
		if b.redis != nil {
			sessions = session.NewRedisStore(b.redis, sessCfg, now)
		} else {
			sessions = session.NewMemoryStore(sessCfg, now)
		}
	}

	// -------- USERS AND CREDENTIALS --------
	users := b.users
	if users == nil {
		users = newMemoryUserStore()
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}

	verifier := b.verifier
	if verifier == nil {
		verifier = password.NewStoreVerifier(hasher, hashLookup(users))
	}

	codec, err := token.NewCodec(cfg.Token.Secret)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		users:    users,
		verifier: verifier,
		sessions: sessions,
		codec:    codec,
		hasher:   hasher,
		registry: registry,
		roles:    roles,
		limiter: rate.New(rate.Config{
			MaxAttempts: cfg.Security.MaxLoginAttempts,
			Window:      cfg.Security.LockoutWindow,
		}, now),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     now,
	}

	if cfg.Session.SweepSchedule != "" {
		sw, err := newSweeper(cfg.Session.SweepSchedule, m)
		if err != nil {
			m.audit.Close()
			return nil, err
		}
		m.sweeper = sw
		m.sweeper.start()
	}

	if cfg.Bootstrap.SeedDefaultAdmin {
		if err := m.seedDefaultAdmin(); err != nil {
			m.Close()
			return nil, err
		}
	}

	return m, nil
}

// hashLookup adapts a UserStore to the password package's lookup
// contract. Users without a stored hash report absent and fail
// verification without an error.
func hashLookup(users UserStore) password.HashLookup {
	return func(ctx context.Context, username string) (string, bool) {
		u, err := users.FindByUsername(ctx, username)
		if err != nil {
			return "", false
		}
		return u.PasswordHash, u.PasswordHash != ""
	}
}
