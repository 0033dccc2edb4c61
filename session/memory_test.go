package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryFixture(cfg Config) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	return NewMemoryStore(cfg, clock.Now), clock
}

func TestMemoryCreateAndGet(t *testing.T) {
	store, clock := newMemoryFixture(Config{Timeout: time.Hour, MaxPerUser: 5})
	ctx := context.Background()

	created, evicted, err := store.Create(ctx, "u1", "1.2.3.4", "curl/8")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(evicted) != 0 {
		t.Fatalf("unexpected eviction: %v", evicted)
	}
	if !created.Active {
		t.Fatal("new session must be active")
	}
	if want := clock.Now().Add(time.Hour); !created.Expires.Equal(want) {
		t.Fatalf("expires mismatch: got %v want %v", created.Expires, want)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "u1" || got.IP != "1.2.3.4" || got.UserAgent != "curl/8" {
		t.Fatalf("session fields mismatch: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryCapEvictsOldest(t *testing.T) {
	store, clock := newMemoryFixture(Config{Timeout: time.Hour, MaxPerUser: 2})
	ctx := context.Background()

	first, _, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	clock.Advance(time.Second)
	second, _, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	clock.Advance(time.Second)
	third, evicted, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(evicted) != 1 || evicted[0] != first.ID {
		t.Fatalf("expected eviction of oldest %s, got %v", first.ID, evicted)
	}

	count, err := store.ActiveCountFor(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCountFor failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active sessions, got %d", count)
	}

	old, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if old.Active {
		t.Fatal("evicted session still active")
	}
	for _, id := range []string{second.ID, third.ID} {
		s, err := store.Get(ctx, id)
		if err != nil || !s.Active {
			t.Fatalf("expected session %s active, err=%v", id, err)
		}
	}
}

func TestMemoryCapTieBreakIsDeterministic(t *testing.T) {
	store, _ := newMemoryFixture(Config{Timeout: time.Hour, MaxPerUser: 2})
	ctx := context.Background()

	// Same clock instant for all three creations: the smaller ULID wins.
	first, _, _ := store.Create(ctx, "u1", "", "")
	second, _, _ := store.Create(ctx, "u1", "", "")
	_, evicted, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if first.ID >= second.ID {
		t.Fatalf("monotonic ids expected: %s then %s", first.ID, second.ID)
	}
	if len(evicted) != 1 || evicted[0] != first.ID {
		t.Fatalf("expected deterministic eviction of %s, got %v", first.ID, evicted)
	}
}

func TestMemoryLazyCleanupOnCreate(t *testing.T) {
	store, clock := newMemoryFixture(Config{Timeout: time.Minute, MaxPerUser: 5})
	ctx := context.Background()

	stale, _, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, _, err := store.Create(ctx, "u2", "", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The expired session was reclaimed during the second creation.
	if _, err := store.Get(ctx, stale.ID); err != ErrNotFound {
		t.Fatalf("expected stale session removed, got %v", err)
	}
}

func TestMemoryDeactivateIsTerminal(t *testing.T) {
	store, _ := newMemoryFixture(Config{Timeout: time.Hour, MaxPerUser: 5})
	ctx := context.Background()

	sess, _, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Deactivate(ctx, sess.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if err := store.Deactivate(ctx, sess.ID); err != nil {
		t.Fatalf("Deactivate must be idempotent: %v", err)
	}
	if err := store.Deactivate(ctx, "missing"); err != nil {
		t.Fatalf("Deactivate of unknown id must not error: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Active {
		t.Fatal("deactivated session reported active")
	}

	count, err := store.ActiveCountFor(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCountFor failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 active sessions, got %d", count)
	}
}

func TestMemoryAttachToken(t *testing.T) {
	store, _ := newMemoryFixture(Config{})
	ctx := context.Background()

	sess, _, err := store.Create(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.AttachToken(ctx, sess.ID, "tok-123"); err != nil {
		t.Fatalf("AttachToken failed: %v", err)
	}
	if err := store.AttachToken(ctx, "missing", "tok"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Token != "tok-123" {
		t.Fatalf("token not stored: %q", got.Token)
	}
}

func TestMemorySweepDropsOnlyExpired(t *testing.T) {
	store, clock := newMemoryFixture(Config{Timeout: time.Minute, MaxPerUser: 5})
	ctx := context.Background()

	expired, _, _ := store.Create(ctx, "u1", "", "")
	clock.Advance(2 * time.Minute)
	fresh, _, _ := store.Create(ctx, "u1", "", "")

	dropped, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	// The expired session was already reclaimed by the second Create.
	if dropped != 0 {
		t.Fatalf("expected 0 dropped, got %d", dropped)
	}

	if _, err := store.Get(ctx, expired.ID); err != ErrNotFound {
		t.Fatalf("expected expired session gone, got %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh session must survive sweep: %v", err)
	}

	clock.Advance(2 * time.Minute)
	dropped, err = store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
}

func TestMemoryConcurrentCreateHoldsCap(t *testing.T) {
	store := NewMemoryStore(Config{Timeout: time.Hour, MaxPerUser: 3}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, _, err := store.Create(ctx, "u1", "", ""); err != nil {
					t.Errorf("Create failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	count, err := store.ActiveCountFor(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCountFor failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("cap violated: %d active sessions", count)
	}
}
