package rate

import (
	"sync"
	"time"
)

// Config holds attempt limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultConfig returns the production defaults: 5 attempts, 15 minutes.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

type record struct {
	count       int
	lastAttempt time.Time
}

// Limiter is a mutex-guarded attempt table. The read-then-increment
// sequence for one identifier is atomic with respect to concurrent callers.
type Limiter struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

// New creates a [Limiter]. now is the clock used for window comparisons;
// nil means time.Now.
func New(cfg Config, now func() time.Time) *Limiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if now == nil {
		now = time.Now
	}

	return &Limiter{
		config:  cfg,
		now:     now,
		records: make(map[string]*record),
	}
}

// IsLimited reports whether the identifier is currently locked out.
// It never mutates the record.
func (l *Limiter) IsLimited(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identifier]
	if !ok || rec.count < l.config.MaxAttempts {
		return false
	}

	return l.now().Sub(rec.lastAttempt) < l.config.Window
}

// RecordFailure counts one failed attempt for the identifier.
func (l *Limiter) RecordFailure(identifier string) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identifier]
	if !ok {
		rec = &record{}
		l.records[identifier] = rec
	}
	rec.count++
	rec.lastAttempt = now
}

// Clear drops the record for the identifier. Called after a successful
// authentication so a later failure starts counting from one.
func (l *Limiter) Clear(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, identifier)
}

// Failures returns the current failure count for the identifier.
func (l *Limiter) Failures(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identifier]
	if !ok {
		return 0
	}
	return rec.count
}
