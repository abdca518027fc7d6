package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rahul/whisper/internal/escrow"
)

func newTestGroupStore(t *testing.T) *GroupStore {
	t.Helper()
	s, err := NewGroupStore(filepath.Join(t.TempDir(), "data", "bot.db"))
	if err != nil {
		t.Fatalf("NewGroupStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGroupStore_SaveAndGet(t *testing.T) {
	s := newTestGroupStore(t)
	ctx := context.Background()

	if _, err := s.GetGroup(ctx, -100200); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	joined := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	g := Group{
		ChatID:         -100200,
		Username:       "book_club",
		ChatType:       "supergroup",
		Title:          "Book Club",
		DateMembership: joined,
	}
	if err := s.SaveGroup(ctx, g); err != nil {
		t.Fatalf("SaveGroup failed: %v", err)
	}

	got, err := s.GetGroup(ctx, -100200)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Title != "Book Club" || got.Username != "book_club" || got.ChatType != "supergroup" {
		t.Errorf("Unexpected group: %+v", got)
	}
	if !got.DateMembership.Equal(joined) {
		t.Errorf("Expected membership date %v, got %v", joined, got.DateMembership)
	}

	// Re-adding the bot refreshes the record instead of failing.
	g.Title = "Book Club (new)"
	g.Username = ""
	if err := s.SaveGroup(ctx, g); err != nil {
		t.Fatalf("SaveGroup upsert failed: %v", err)
	}
	got, _ = s.GetGroup(ctx, -100200)
	if got.Title != "Book Club (new)" || got.Username != "" {
		t.Errorf("Expected refreshed record, got %+v", got)
	}
}

func TestDirectory_Track(t *testing.T) {
	s := newTestGroupStore(t)
	sets := escrow.NewMemoryStore()
	d := NewDirectory(s, sets)
	ctx := context.Background()

	g := Group{ChatID: -100300, ChatType: "group", Title: "Team", DateMembership: time.Now()}

	if ok, _ := d.IsBotMember(ctx, g.ChatID); ok {
		t.Fatal("Bot should not be a member before joining")
	}

	if err := d.Track(ctx, MembershipChange{Group: g, Joined: true}); err != nil {
		t.Fatalf("Track join failed: %v", err)
	}
	if ok, _ := d.IsBotMember(ctx, g.ChatID); !ok {
		t.Error("Expected bot to be a member after joining")
	}
	got, err := d.Group(ctx, g.ChatID)
	if err != nil || got.Title != "Team" {
		t.Errorf("Expected stored group, got %+v (err %v)", got, err)
	}

	if err := d.Track(ctx, MembershipChange{Group: g, Joined: false}); err != nil {
		t.Fatalf("Track leave failed: %v", err)
	}
	if ok, _ := d.IsBotMember(ctx, g.ChatID); ok {
		t.Error("Expected bot membership removed after leaving")
	}
}
