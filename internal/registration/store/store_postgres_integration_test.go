//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"ekaa/internal/registration/models"
	"ekaa/internal/registration/store"
	"ekaa/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.SQLStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewSQL(s.postgres.DB, store.DialectPostgres)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "registrations"))
}

func (s *PostgresStoreSuite) TestCreateAndFindAll() {
	ctx := context.Background()
	ref := "LinkedIn"
	reg := &models.Registration{
		Name:              "Jane Doe",
		Email:             "jane@x.com",
		Phone:             "555-1234",
		ConnectedWith:     &ref,
		SelectedTrainings: "Yoga, Meditation",
	}
	s.Require().NoError(s.store.Create(ctx, reg))
	s.Equal(int64(1), reg.ID, "identity restarts after truncate")

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(reg, all[0])
}

// TestConcurrentInserts verifies the database assigns distinct IDs under
// parallel submissions without any application-level locking.
func (s *PostgresStoreSuite) TestConcurrentInserts() {
	ctx := context.Background()
	const writers = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.store.Create(ctx, &models.Registration{Name: "n", Email: "e", Phone: "p"})
		}()
	}
	wg.Wait()

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Len(all, writers)
	for i := 1; i < len(all); i++ {
		s.Less(all[i-1].ID, all[i].ID)
	}
}

func (s *PostgresStoreSuite) TestNullColumnsStayNull() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, &models.Registration{Name: "A", Email: "a", Phone: "1"}))

	var nulls int
	err := s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE country_city IS NULL AND created_at IS NULL AND connected_with IS NULL`,
	).Scan(&nulls)
	s.Require().NoError(err)
	s.Equal(1, nulls)
}
