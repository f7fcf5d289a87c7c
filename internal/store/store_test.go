package store

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreBasics(t *testing.T) {
	s := NewMemoryStore[string](0, 0, nil)
	defer s.Close()

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected missing id to be absent")
	}

	s.Put("a", "one")
	if v, ok := s.Get("a"); !ok || v != "one" {
		t.Errorf("Get(a) = %q, %v; want one, true", v, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	if !s.Delete("a") {
		t.Error("Delete(a) should report presence")
	}
	if s.Delete("a") {
		t.Error("second Delete(a) should report absence")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", s.Len())
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore[int](time.Minute, 0, nil)
	defer s.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Put("old", 1)
	now = now.Add(30 * time.Second)
	s.Put("fresh", 2)

	now = now.Add(45 * time.Second)
	if _, ok := s.Get("old"); ok {
		t.Error("old entry should be expired on read")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh entry should still be present")
	}

	if n := s.evictExpired(); n != 1 {
		t.Errorf("evictExpired() = %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	// Put refreshes the clock
	s.Put("fresh", 3)
	now = now.Add(50 * time.Second)
	if v, ok := s.Get("fresh"); !ok || v != 3 {
		t.Errorf("Get(fresh) = %d, %v; want 3, true", v, ok)
	}
}

func TestMemoryStoreTouch(t *testing.T) {
	s := NewMemoryStore[int](time.Minute, 0, nil)
	defer s.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if s.Touch("missing") {
		t.Error("Touch should not report an absent id")
	}
	if s.Len() != 0 {
		t.Errorf("Touch created an entry, Len() = %d", s.Len())
	}

	s.Put("a", 1)
	now = now.Add(45 * time.Second)
	if !s.Touch("a") {
		t.Error("Touch(a) should report presence")
	}
	now = now.Add(45 * time.Second)
	if v, ok := s.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v after Touch; want 1, true", v, ok)
	}

	s.Delete("a")
	if s.Touch("a") {
		t.Error("Touch must not bring back a deleted id")
	}
	if _, ok := s.Get("a"); ok {
		t.Error("deleted id is present again")
	}

	s.Put("b", 2)
	now = now.Add(2 * time.Minute)
	if s.Touch("b") {
		t.Error("Touch should not revive an expired entry")
	}
}

func TestMemoryStoreRangeStopsEarly(t *testing.T) {
	s := NewMemoryStore[int](0, 0, nil)
	defer s.Close()
	for i, id := range []string{"a", "b", "c"} {
		s.Put(id, i)
	}

	calls := 0
	s.Range(func(string, int) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Errorf("Range made %d calls, want 1", calls)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore[int](time.Hour, time.Millisecond, nil)
	defer s.Close()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			s.Put(id, i)
			s.Get(id)
			if i%3 == 0 {
				s.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() > 26 {
		t.Errorf("Len() = %d, want at most 26", s.Len())
	}
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore[int](time.Hour, time.Second, nil)
	s.Close()
	s.Close()
}
