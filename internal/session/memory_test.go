package session

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("Expected nil session, got %+v", got)
	}

	s := New(42, 4200)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be stamped on save")
	}

	got, err = store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.State != AwaitingGroup || got.ChatID != 4200 {
		t.Fatalf("Unexpected session: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.State = AwaitingMessage
	again, _ := store.Get(ctx, 42)
	if again.State != AwaitingGroup {
		t.Errorf("Expected stored state to stay %s, got %s", AwaitingGroup, again.State)
	}

	if err := store.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d", store.Len())
	}
	if err := store.Delete(ctx, 42); err != nil {
		t.Errorf("Deleting a missing session should not fail: %v", err)
	}
}

func TestMemoryStore_RejectsInvalidState(t *testing.T) {
	store := NewMemoryStore()
	err := store.Save(context.Background(), &Session{UserID: 1})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}

func TestNewStore(t *testing.T) {
	if _, err := NewStore(StoreTypeMemory); err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, err := NewStore(StoreTypeRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig without a client, got %v", err)
	}
	if _, err := NewStore("etcd"); !errors.Is(err, ErrInvalidStoreType) {
		t.Errorf("Expected ErrInvalidStoreType, got %v", err)
	}
}
