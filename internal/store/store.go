// Package store holds the registry of analysis runs keyed by id.
package store

import (
	"sync"
	"time"

	"candidatelens/internal/errors"
)

// Store is a concurrent keyed registry
type Store[T any] interface {
	Get(id string) (T, bool)
	Put(id string, v T)
	// Touch refreshes the expiry clock of an entry that is still present
	// and reports whether it was
	Touch(id string) bool
	// Delete removes id and reports whether it was present
	Delete(id string) bool
	Len() int
	// Range calls fn for every entry until fn returns false
	Range(fn func(id string, v T) bool)
	Close()
}

type entry[T any] struct {
	value   T
	touched time.Time
}

// MemoryStore keeps entries in process memory. Entries not Put for longer
// than ttl are evicted by a janitor goroutine; ttl <= 0 disables expiry.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
	logger  *errors.Logger
	now     func() time.Time
}

// NewMemoryStore creates a store and starts its janitor when ttl and
// interval are both positive
func NewMemoryStore[T any](ttl, interval time.Duration, logger *errors.Logger) *MemoryStore[T] {
	if logger == nil {
		logger = errors.Discard()
	}
	s := &MemoryStore[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		done:    make(chan struct{}),
		logger:  logger,
		now:     time.Now,
	}
	if ttl > 0 && interval > 0 {
		go s.janitor(interval)
	}
	return s
}

func (s *MemoryStore[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *MemoryStore[T]) Put(id string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry[T]{value: v, touched: s.now()}
}

func (s *MemoryStore[T]) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		return false
	}
	e.touched = s.now()
	s.entries[id] = e
	return true
}

func (s *MemoryStore[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore[T]) Range(fn func(id string, v T) bool) {
	s.mu.RLock()
	snapshot := make(map[string]T, len(s.entries))
	for id, e := range s.entries {
		if !s.expired(e) {
			snapshot[id] = e.value
		}
	}
	s.mu.RUnlock()

	for id, v := range snapshot {
		if !fn(id, v) {
			return
		}
	}
}

func (s *MemoryStore[T]) expired(e entry[T]) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}

func (s *MemoryStore[T]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.done:
			return
		}
	}
}

// evictExpired removes entries older than the ttl and returns how many went
func (s *MemoryStore[T]) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("Evicted expired analyses", "evicted", evicted, "remaining", len(s.entries))
	}
	return evicted
}

// Close stops the janitor. Safe to call more than once.
func (s *MemoryStore[T]) Close() {
	s.once.Do(func() { close(s.done) })
}
