package authgate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/password"
	"github.com/MrEthical07/authgate/permission"
	"github.com/MrEthical07/authgate/session"
	"github.com/MrEthical07/authgate/token"
)

// Manager is the authentication orchestrator. Construct one through the
// Builder at process start and share it by reference across request
// handlers; all methods are safe for concurrent use.
type Manager struct {
	cfg Config

	users    UserStore
	verifier CredentialVerifier
	sessions session.Store
	codec    *token.Codec
	hasher   *password.Argon2
	registry *permission.Registry
	roles    *permission.Roles
	limiter  *rate.Limiter

	audit   *auditDispatcher
	metrics *Metrics
	sweeper *sweeper

	now    func() time.Time
	closed atomic.Bool
}

// Metrics exposes the manager's counters for export.
func (m *Manager) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// MetricsSnapshot returns a point-in-time copy of every counter and
// histogram. Exporters consume this instead of the live Metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// dispatcher backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Config returns a copy of the effective configuration, including any
// generated token secret.
func (m *Manager) Config() Config {
	return cloneConfig(m.cfg)
}

// Authenticate verifies username and password and, on success, creates
// a session and returns its signed bearer token. The rate-limit
// identifier is the client IP from ctx when set, otherwise the
// username. Credential failures all surface as ErrInvalidCredentials so
// callers cannot probe which usernames exist.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	identifier := clientIPFromContext(ctx)
	if identifier == "" {
		identifier = username
	}

	if m.limiter.IsLimited(identifier) {
		m.metrics.Inc(MetricLoginRateLimited)
		m.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrRateLimited, func() map[string]string {
			return map[string]string{"identifier": identifier}
		})
		return nil, ErrRateLimited
	}

	user, err := m.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrInternal, err)
	}
	if user == nil || !user.Active {
		m.limiter.RecordFailure(identifier)
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	ok, err := m.verifier.Verify(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: credential verifier: %v", ErrInternal, err)
	}
	if !ok {
		m.limiter.RecordFailure(identifier)
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	sess, evicted, err := m.sessions.Create(ctx, user.ID, clientIPFromContext(ctx), userAgentFromContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: session create: %v", ErrInternal, err)
	}
	m.metrics.Inc(MetricSessionCreated)
	m.metrics.Add(MetricSessionEvicted, uint64(len(evicted)))
	for _, id := range evicted {
		m.emitAudit(ctx, auditEventSessionEvicted, true, user.ID, id, nil, nil)
	}

	tok, err := m.codec.Sign(token.Payload{
		SessionID: sess.ID,
		UserID:    user.ID,
		Exp:       sess.Expires.UnixMilli(),
	})
	if err != nil {
		// Keep state consistent: drop the session the caller will
		// never receive a token for.
		_ = m.sessions.Deactivate(ctx, sess.ID)
		return nil, fmt.Errorf("%w: token sign: %v", ErrInternal, err)
	}
	if err := m.sessions.AttachToken(ctx, sess.ID, tok); err != nil {
		_ = m.sessions.Deactivate(ctx, sess.ID)
		return nil, fmt.Errorf("%w: attach token: %v", ErrInternal, err)
	}

	if err := m.users.TouchLastLogin(ctx, user.ID, m.now()); err != nil {
		_ = m.sessions.Deactivate(ctx, sess.ID)
		return nil, fmt.Errorf("%w: touch last login: %v", ErrInternal, err)
	}
	m.limiter.Clear(identifier)

	m.metrics.Inc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, sess.ID, nil, nil)

	return &LoginResult{
		Token:     tok,
		User:      user.public(),
		SessionID: sess.ID,
	}, nil
}

// ValidateToken checks a bearer token's signature and then the session
// and user behind it. The session store is authoritative: a valid
// signature with an expired, logged-out, or evicted session still
// fails. Validating an expired session deactivates it.
func (m *Manager) ValidateToken(ctx context.Context, tok string) (*AuthResult, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := m.now()

	res, err := m.validateToken(ctx, tok)
	m.metrics.Observe(MetricValidateLatency, m.now().Sub(start))
	if err != nil {
		m.metrics.Inc(MetricValidateFailure)
		return nil, err
	}
	m.metrics.Inc(MetricValidateSuccess)
	return res, nil
}

func (m *Manager) validateToken(ctx context.Context, tok string) (*AuthResult, error) {
	payload, err := m.codec.Verify(tok)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sess, err := m.sessions.Get(ctx, payload.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: session lookup: %v", ErrInternal, err)
	}
	if sess.UserID != payload.UserID {
		return nil, ErrInvalidToken
	}
	if !sess.Active {
		return nil, ErrInactiveSession
	}

	now := m.now()
	if !now.Before(sess.Expires) {
		if err := m.sessions.Deactivate(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("%w: expire session: %v", ErrInternal, err)
		}
		m.metrics.Inc(MetricSessionExpired)
		m.emitAudit(ctx, auditEventSessionExpired, false, sess.UserID, sess.ID, ErrExpiredSession, nil)
		return nil, ErrExpiredSession
	}

	user, err := m.users.Get(ctx, sess.UserID)
	if errors.Is(err, ErrUserNotFound) {
		// Session stays untouched; the account may be restored.
		return nil, ErrInactiveUser
	}
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrInternal, err)
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}

	return &AuthResult{
		User: user.public(),
		Session: SessionInfo{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			Created:   sess.Created,
			Expires:   sess.Expires,
			IP:        sess.IP,
			UserAgent: sess.UserAgent,
			Active:    sess.Active,
		},
	}, nil
}

// Logout deactivates the session a token refers to. Only the signature
// must check out; logging out an already inactive or expired session
// succeeds. The token itself remains a dead credential afterwards.
func (m *Manager) Logout(ctx context.Context, tok string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := m.codec.Verify(tok)
	if err != nil {
		return ErrInvalidToken
	}

	if err := m.sessions.Deactivate(ctx, payload.SessionID); err != nil {
		return fmt.Errorf("%w: deactivate session: %v", ErrInternal, err)
	}

	m.metrics.Inc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, payload.UserID, payload.SessionID, nil, nil)
	return nil
}

// Sweep removes sessions that are already expired or inactive and
// reports how many were dropped. Creation does this lazily on its own;
// Sweep exists for scheduled or operator-triggered cleanup.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if m == nil {
		return 0, ErrManagerNotReady
	}
	return m.sessions.Sweep(ctx)
}

// Close stops the background sweeper, if any, and drains the audit
// pipeline. The Manager must not be used afterwards.
func (m *Manager) Close() {
	if m == nil || !m.closed.CompareAndSwap(false, true) {
		return
	}
	if m.sweeper != nil {
		m.sweeper.stop()
	}
	m.audit.Close()
}
