package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"ekaa/internal/registration/models"
)

type InMemoryStoreSuite struct {
	ContractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func() Repository { return NewInMemory() }
	suite.Run(t, s)
}

func (s *InMemoryStoreSuite) TestReturnedRowsAreCopies() {
	ctx := context.Background()
	repo := NewInMemory()
	s.Require().NoError(repo.Create(ctx, &models.Registration{Name: "A", Email: "a", Phone: "1"}))

	all, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	all[0].Name = "mutated"

	again, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Equal("A", again[0].Name)
}

func (s *InMemoryStoreSuite) TestConcurrentCreatesGetUniqueIDs() {
	ctx := context.Background()
	repo := NewInMemory()
	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Create(ctx, &models.Registration{Name: "n", Email: "e", Phone: "p"})
		}()
	}
	wg.Wait()

	all, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, writers)
	seen := make(map[int64]struct{}, writers)
	for _, reg := range all {
		seen[reg.ID] = struct{}{}
	}
	s.Len(seen, writers)
}
