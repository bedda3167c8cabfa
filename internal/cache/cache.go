package cache

import (
	"sync"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
)

type entry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

// Store is an in-memory TTL key-value store. Entries are evicted lazily:
// a read of an expired entry behaves as a miss and removes the entry.
type Store struct {
	mutex   sync.Mutex
	clock   clock.Clock
	entries map[string]entry
}

func New(clk clock.Clock) *Store {
	return &Store{
		clock:   clk,
		entries: make(map[string]entry),
	}
}

// Get returns the value for key, or found=false if the key is absent or
// its TTL has elapsed. An expired entry is deleted so it is never
// observed twice.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	if s.expired(e) {
		delete(s.entries, key)
		return nil, false
	}

	return e.value, true
}

// Set stores value under key, overwriting any existing entry and
// resetting its storedAt timestamp.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[key] = entry{
		value:    value,
		storedAt: s.clock.Now(),
		ttl:      ttl,
	}
}

func (s *Store) Delete(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.entries, key)
}

// Exists reports whether key holds a live entry. Like Get, it removes
// an expired entry.
func (s *Store) Exists(key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}

	if s.expired(e) {
		delete(s.entries, key)
		return false
	}

	return true
}

// Len returns the number of entries currently held, including entries
// whose TTL has elapsed but which have not been read since.
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

func (s *Store) expired(e entry) bool {
	return s.clock.Now().Sub(e.storedAt) >= e.ttl
}
