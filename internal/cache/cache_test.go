package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestViewRegistryOwnership(t *testing.T) {
	r := NewViewRegistry[string]()
	r.Put("v1", "alice@example.com", "view-1")

	got, err := r.Get("v1", "alice@example.com")
	if err != nil || got != "view-1" {
		t.Fatalf("expected view-1, got %q (%v)", got, err)
	}

	if _, err := r.Get("v1", "bob@example.com"); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound for another owner, got %v", err)
	}
	if r.Delete("v1", "bob@example.com") {
		t.Error("another owner must not delete the view")
	}
	if !r.Delete("v1", "alice@example.com") {
		t.Error("expected owner delete to succeed")
	}
	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
}

func TestViewRegistryRemoveIdle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewViewRegistry[int]()
	r.now = clock.now

	r.Put("old", "a", 1)
	clock.t = clock.t.Add(10 * time.Minute)
	r.Put("fresh", "a", 2)

	if removed := r.RemoveIdle(5 * time.Minute); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, err := r.Get("old", "a"); err == nil {
		t.Error("expected idle view evicted")
	}
	if len(r.All()) != 1 {
		t.Errorf("expected one remaining view, got %d", len(r.All()))
	}
}

func TestViewRegistryGetRefreshesAccess(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewViewRegistry[int]()
	r.now = clock.now

	r.Put("v", "a", 1)
	clock.t = clock.t.Add(4 * time.Minute)
	r.Get("v", "a")
	clock.t = clock.t.Add(4 * time.Minute)

	if removed := r.RemoveIdle(5 * time.Minute); removed != 0 {
		t.Errorf("expected recently read view kept, removed %d", removed)
	}
}

func TestMemoryRowStore(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryRowStore()
	s.now = clock.now

	payload := types.SheetPayload{Values: [][]any{{"Name"}, {"Alice"}}}
	if err := s.Set(ctx, "rows", payload, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := s.Get(ctx, "rows")
	if err != nil || !ok || len(got.Values) != 2 {
		t.Fatalf("expected hit, got %v %v %v", got, ok, err)
	}

	clock.t = clock.t.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "rows"); ok {
		t.Error("expected entry expired")
	}

	s.Set(ctx, "forever", payload, 0)
	clock.t = clock.t.Add(24 * time.Hour)
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Error("expected zero ttl to never expire")
	}
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	unlock, err := l.Obtain(ctx, "rows", time.Minute)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}
	if _, err := l.Obtain(ctx, "rows", time.Minute); !errors.Is(err, ErrLockHeld) {
		t.Errorf("expected ErrLockHeld, got %v", err)
	}
	if _, err := l.Obtain(ctx, "other", time.Minute); err != nil {
		t.Errorf("expected independent keys, got %v", err)
	}
	unlock(ctx)
	if _, err := l.Obtain(ctx, "rows", time.Minute); err != nil {
		t.Errorf("expected lock free after release, got %v", err)
	}
}

func TestMemoryLockerExpires(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()
	if _, err := l.Obtain(ctx, "rows", time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, err := l.Obtain(ctx, "rows", time.Minute); err != nil {
		t.Errorf("expected expired lock to be reclaimable, got %v", err)
	}
}

func TestMemoryLockerStaleUnlockKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	stale, err := l.Obtain(ctx, "rows", time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	fresh, err := l.Obtain(ctx, "rows", time.Minute)
	if err != nil {
		t.Fatalf("expected expired lock to be reclaimable, got %v", err)
	}
	if err := stale(ctx); err != nil {
		t.Errorf("stale unlock: %v", err)
	}
	if _, err := l.Obtain(ctx, "rows", time.Minute); !errors.Is(err, ErrLockHeld) {
		t.Errorf("expected new holder to keep the lock, got %v", err)
	}

	fresh(ctx)
	if _, err := l.Obtain(ctx, "rows", time.Minute); err != nil {
		t.Errorf("expected lock free after the holder releases, got %v", err)
	}
}
