package observability

import (
	"sync"
	"time"
)

// Status counts what the bot is doing, for the live status line.
type Status struct {
	mu            sync.RWMutex
	inFlight      int
	delivered     int
	revealed      int
	lastHeartbeat time.Time
}

// StatusSnapshot is a point-in-time copy of Status.
type StatusSnapshot struct {
	InFlight      int
	Delivered     int
	Revealed      int
	LastHeartbeat time.Time
}

func NewStatus() *Status {
	return &Status{lastHeartbeat: time.Now()}
}

// Begin marks an update as being handled; the returned func ends it.
func (s *Status) Begin() (end func()) {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}
}

func (s *Status) Delivered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered++
}

func (s *Status) Revealed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed++
}

// Heartbeat updates the last heartbeat time.
func (s *Status) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = time.Now()
}

func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{
		InFlight:      s.inFlight,
		Delivered:     s.delivered,
		Revealed:      s.revealed,
		LastHeartbeat: s.lastHeartbeat,
	}
}
