package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeTransition EventType = "session_transition"
	EventTypeDelivery   EventType = "delivery"
	EventTypeReveal     EventType = "reveal"
	EventTypeMembership EventType = "membership"
	EventTypeFailure    EventType = "failure"
	EventTypeHeartbeat  EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id,omitempty"`
	ChatID    int64     `json:"chat_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	mu             sync.Mutex
	out            io.Writer
	failureLogPath string
	maxSize        int64
}

func NewLogger() *Logger {
	return &Logger{
		out:            os.Stdout,
		failureLogPath: filepath.Join("logs", "failures.jsonl"),
		maxSize:        10 * 1024 * 1024, // 10MB
	}
}

// NewLoggerTo writes events to w only, without the failure log file.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		l.write([]byte(fmt.Sprintf("{\"error\": \"failed to marshal event: %v\"}", err)))
		return
	}
	l.write(data)

	if evt.Type == EventTypeFailure && l.failureLogPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) write(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(data, '\n'))
}

func (l *Logger) writeToFile(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.failureLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.failureLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.failureLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.failureLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.failureLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogTransition(userID int64, from, to string) {
	l.Log(Event{
		Type:   EventTypeTransition,
		UserID: userID,
		Data: map[string]string{
			"from": from,
			"to":   to,
		},
	})
}

func (l *Logger) LogDelivery(userID, groupID int64, messageID int) {
	l.Log(Event{
		Type:   EventTypeDelivery,
		UserID: userID,
		ChatID: groupID,
		Data:   map[string]int{"message_id": messageID},
	})
}

func (l *Logger) LogReveal(actorID, groupID int64, messageID int, outcome string) {
	l.Log(Event{
		Type:   EventTypeReveal,
		UserID: actorID,
		ChatID: groupID,
		Data: map[string]any{
			"message_id": messageID,
			"outcome":    outcome,
		},
	})
}

func (l *Logger) LogMembership(groupID int64, joined bool) {
	l.Log(Event{
		Type:   EventTypeMembership,
		ChatID: groupID,
		Data:   map[string]bool{"joined": joined},
	})
}

func (l *Logger) LogFailure(userID int64, stage string, err error) {
	l.Log(Event{
		Type:   EventTypeFailure,
		UserID: userID,
		Data: map[string]string{
			"stage": stage,
			"error": err.Error(),
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
