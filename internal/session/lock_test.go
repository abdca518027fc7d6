package session

import (
	"sync"
	"testing"
	"time"
)

func TestLocker_SerialisesSameUser(t *testing.T) {
	l := NewLocker()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(7)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("Expected at most one holder at a time, saw %d", maxSeen)
	}
	if l.Held() != 0 {
		t.Errorf("Expected lock table to drain, %d entries left", l.Held())
	}
}

func TestLocker_DifferentUsersDoNotBlock(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock for user 2 blocked behind user 1")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock(3)
	unlock()
	unlock()
	if l.Held() != 0 {
		t.Errorf("Expected no entries, got %d", l.Held())
	}
}
