package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the reference in-process [Store]. One mutex guards the
// whole table; the check-then-evict-then-insert sequence in Create is
// therefore atomic with respect to every other operation.
type MemoryStore struct {
	config Config
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store. now is the clock used
// for expiry comparisons; nil means time.Now.
func NewMemoryStore(cfg Config, now func() time.Time) *MemoryStore {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = def.MaxPerUser
	}
	if now == nil {
		now = time.Now
	}

	return &MemoryStore{
		config:   cfg,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Create implements [Store].
func (m *MemoryStore) Create(ctx context.Context, userID, ip, userAgent string) (*Session, []string, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Lazy cleanup: creation is the only place expired entries are
	// reclaimed unless a sweeper is configured.
	for id, sess := range m.sessions {
		if !now.Before(sess.Expires) {
			delete(m.sessions, id)
		}
	}

	var evicted []string
	for m.activeCountLocked(userID, now) >= m.config.MaxPerUser {
		victim := m.oldestActiveLocked(userID)
		if victim == nil {
			break
		}
		victim.Active = false
		evicted = append(evicted, victim.ID)
	}

	sess := &Session{
		ID:        NewID(now),
		UserID:    userID,
		Created:   now,
		Expires:   now.Add(m.config.Timeout),
		IP:        ip,
		UserAgent: userAgent,
		Active:    true,
	}
	m.sessions[sess.ID] = sess

	return sess.clone(), evicted, nil
}

// Get implements [Store].
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.clone(), nil
}

// AttachToken implements [Store].
func (m *MemoryStore) AttachToken(ctx context.Context, sessionID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.Token = token
	return nil
}

// Deactivate implements [Store].
func (m *MemoryStore) Deactivate(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sessionID]; ok {
		sess.Active = false
	}
	return nil
}

// ActiveCountFor implements [Store].
func (m *MemoryStore) ActiveCountFor(ctx context.Context, userID string) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.activeCountLocked(userID, now), nil
}

// ActiveSessions implements [Store].
func (m *MemoryStore) ActiveSessions(ctx context.Context) ([]*Session, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Session
	for _, sess := range m.sessions {
		if sess.Usable(now) {
			out = append(out, sess.clone())
		}
	}
	return out, nil
}

// Sweep implements [Store].
func (m *MemoryStore) Sweep(ctx context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, sess := range m.sessions {
		if !now.Before(sess.Expires) {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped, nil
}

func (m *MemoryStore) activeCountLocked(userID string, now time.Time) int {
	count := 0
	for _, sess := range m.sessions {
		if sess.UserID == userID && sess.Usable(now) {
			count++
		}
	}
	return count
}

// oldestActiveLocked selects the user's active session with the earliest
// Created timestamp, tie-broken by smaller id (ULIDs sort by creation).
func (m *MemoryStore) oldestActiveLocked(userID string) *Session {
	var victim *Session
	for _, sess := range m.sessions {
		if sess.UserID != userID || !sess.Active {
			continue
		}
		if victim == nil ||
			sess.Created.Before(victim.Created) ||
			(sess.Created.Equal(victim.Created) && sess.ID < victim.ID) {
			victim = sess
		}
	}
	return victim
}
