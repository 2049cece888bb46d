package ratelimit

import (
	"sync"
	"time"
)

// Entry is the fixed-window counter for one client key.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store holds rate-limit entries. Implementations must be safe for
// concurrent use; the Limiter serializes its own read-modify-write cycles.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
	Delete(key string)
	// Range calls fn for each entry until fn returns false. fn must not
	// modify the store.
	Range(fn func(key string, e Entry) bool)
}

// MemoryStore is a process-local Store. Its contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *MemoryStore) Set(key string, e Entry) {
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *MemoryStore) Range(fn func(key string, e Entry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, e := range s.entries {
		if !fn(k, e) {
			return
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
