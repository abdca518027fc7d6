package escrow

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Expired entries are dropped lazily.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]entry
	sets   map[string]map[string]struct{}
	now    func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		values: make(map[string]entry),
		sets:   make(map[string]map[string]struct{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store. A non-positive ttl keeps the value forever.
func (s *MemoryStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[key]
	if !ok {
		return "", ErrAbsent
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.values, key)
		return "", ErrAbsent
	}
	return e.value, nil
}

// SetAdd implements Store.
func (s *MemoryStore) SetAdd(ctx context.Context, setKey, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setKey]
	if !ok {
		set = make(map[string]struct{})
		s.sets[setKey] = set
	}
	set[member] = struct{}{}
	return nil
}

// SetRemove implements Store.
func (s *MemoryStore) SetRemove(ctx context.Context, setKey, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets[setKey], member)
	return nil
}

// SetContains implements Store.
func (s *MemoryStore) SetContains(ctx context.Context, setKey, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sets[setKey][member]
	return ok, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
