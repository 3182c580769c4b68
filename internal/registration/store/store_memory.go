package store

import (
	"context"
	"sync"

	"ekaa/internal/registration/models"
)

// InMemory keeps registrations in insertion order. IDs start at 1.
type InMemory struct {
	mu     sync.RWMutex
	rows   []models.Registration
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1}
}

func (s *InMemory) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, *reg)
	return nil
}

// FindAll returns copies so callers cannot mutate stored rows.
func (s *InMemory) FindAll(_ context.Context) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Registration, 0, len(s.rows))
	for i := range s.rows {
		row := s.rows[i]
		out = append(out, &row)
	}
	return out, nil
}
