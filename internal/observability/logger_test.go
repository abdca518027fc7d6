package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_LogFailure(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf)

	l.LogFailure(42, "deliver", errors.New("boom"))

	var evt struct {
		Type   EventType         `json:"type"`
		UserID int64             `json:"user_id"`
		Data   map[string]string `json:"data"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &evt); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if evt.Type != EventTypeFailure || evt.UserID != 42 {
		t.Errorf("Unexpected event header: %+v", evt)
	}
	if evt.Data["stage"] != "deliver" || evt.Data["error"] != "boom" {
		t.Errorf("Unexpected event data: %v", evt.Data)
	}
}

func TestLogger_OneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf)

	l.LogTransition(1, "awaiting_group", "awaiting_recipient")
	l.LogDelivery(1, -100, 5)
	l.LogHeartbeat()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
}

func TestStatus_Counters(t *testing.T) {
	s := NewStatus()
	end := s.Begin()
	s.Delivered()
	s.Revealed()
	s.Revealed()

	snap := s.Snapshot()
	if snap.InFlight != 1 || snap.Delivered != 1 || snap.Revealed != 2 {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}

	end()
	if s.Snapshot().InFlight != 0 {
		t.Error("Expected in-flight to drop after end")
	}
}
