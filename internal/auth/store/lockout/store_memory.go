// Package lockout counts failed admin logins per key within a fixed window.
package lockout

import (
	"context"
	"sync"
	"time"
)

type record struct {
	failures    int
	windowStart time.Time
}

// InMemory keeps failure counters in process memory. A window opens on the
// first failure and resets once it has fully elapsed.
type InMemory struct {
	mu      sync.Mutex
	window  time.Duration
	records map[string]*record
}

func NewInMemory(window time.Duration) *InMemory {
	return &InMemory{
		window:  window,
		records: make(map[string]*record),
	}
}

// Failures returns the failure count of the current window for key.
func (s *InMemory) Failures(_ context.Context, key string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return 0, nil
	}
	if s.expired(rec, now) {
		delete(s.records, key)
		return 0, nil
	}
	return rec.failures, nil
}

// RecordFailure increments the counter for key and returns the new count.
func (s *InMemory) RecordFailure(_ context.Context, key string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || s.expired(rec, now) {
		rec = &record{windowStart: now}
		s.records[key] = rec
	}
	rec.failures++
	return rec.failures, nil
}

func (s *InMemory) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *InMemory) expired(rec *record, now time.Time) bool {
	return !now.Before(rec.windowStart.Add(s.window))
}
