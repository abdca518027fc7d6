package escrow

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore_PutGetExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	key := DeliveryKey(-1001, 7, 55)
	if err := store.Put(ctx, key, "hello", 24*time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	clock.Advance(23 * time.Hour)
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("Expected hello, got %q", got)
	}

	// Reads do not consume the entry.
	if again, _ := store.Get(ctx, key); again != "hello" {
		t.Errorf("Expected repeated read to return hello, got %q", again)
	}

	clock.Advance(2 * time.Hour)
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrAbsent) {
		t.Fatalf("Expected ErrAbsent after expiry, got %v", err)
	}
}

func TestMemoryStore_Sets(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.SetContains(ctx, GroupsKey, "-1001")
	if err != nil || ok {
		t.Fatalf("Expected empty set, got %v (err %v)", ok, err)
	}

	_ = store.SetAdd(ctx, GroupsKey, "-1001")
	if ok, _ := store.SetContains(ctx, GroupsKey, "-1001"); !ok {
		t.Error("Expected member after SetAdd")
	}

	_ = store.SetRemove(ctx, GroupsKey, "-1001")
	if ok, _ := store.SetContains(ctx, GroupsKey, "-1001"); ok {
		t.Error("Expected member gone after SetRemove")
	}
}

func TestDeliveryKey(t *testing.T) {
	got := DeliveryKey(-100123, 42, 9)
	if got != "private_message:-100123:42:9" {
		t.Errorf("Unexpected key %q", got)
	}
	if DeliveryKey(-100123, 42, 9) == DeliveryKey(-100123, 43, 9) {
		t.Error("Keys for different recipients must differ")
	}
}
