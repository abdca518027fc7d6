package gateway

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/rahul/whisper/internal/observability"
	"github.com/rahul/whisper/internal/store"
)

type recordingTracker struct {
	mu      sync.Mutex
	changes []store.MembershipChange
}

func (r *recordingTracker) Track(ctx context.Context, change store.MembershipChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
	return nil
}

func membershipUpdate(id int) json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"update_id": id,
		"my_chat_member": map[string]any{
			"chat":            map[string]any{"id": -100555, "type": "supergroup", "title": "Readers"},
			"from":            map[string]any{"id": 7, "is_bot": false, "first_name": "Sam"},
			"date":            1760000000,
			"old_chat_member": map[string]any{"user": map[string]any{"id": 99, "is_bot": true}, "status": "left"},
			"new_chat_member": map[string]any{"user": map[string]any{"id": 99, "is_bot": true}, "status": "member"},
		},
	})
	return data
}

func newTestGateway(tracker *recordingTracker) *TelegramGateway {
	return &TelegramGateway{
		Groups: tracker,
		Logger: observability.NewLoggerTo(io.Discard),
		Status: observability.NewStatus(),
	}
}

func TestDispatchBatch(t *testing.T) {
	tracker := &recordingTracker{}
	tg := newTestGateway(tracker)

	offset := tg.dispatchBatch(context.Background(), []json.RawMessage{membershipUpdate(5), membershipUpdate(6)}, 0)
	if err := tg.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if offset != 7 {
		t.Errorf("Expected next offset 7, got %d", offset)
	}
	if len(tracker.changes) != 2 {
		t.Errorf("Expected both updates tracked, got %d", len(tracker.changes))
	}
}

func TestDispatchBatch_AfterShutdown(t *testing.T) {
	tracker := &recordingTracker{}
	tg := newTestGateway(tracker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	offset := tg.dispatchBatch(ctx, []json.RawMessage{membershipUpdate(5)}, 3)
	_ = tg.Stop()

	if offset != 3 {
		t.Errorf("Expected the batch left unacknowledged at offset 3, got %d", offset)
	}
	if len(tracker.changes) != 0 {
		t.Errorf("Expected nothing dispatched after shutdown, got %d", len(tracker.changes))
	}
}
