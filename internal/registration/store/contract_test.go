package store

import (
	"context"

	"github.com/stretchr/testify/suite"

	"ekaa/internal/registration/models"
)

// Repository is the behaviour every store implementation must share.
type Repository interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindAll(ctx context.Context) ([]*models.Registration, error)
}

// ContractSuite runs the repository invariants against any implementation.
// Embedding suites set newStore in SetupTest.
type ContractSuite struct {
	suite.Suite
	newStore func() Repository
}

func strPtr(s string) *string { return &s }

func (s *ContractSuite) TestCreateAssignsIDs() {
	ctx := context.Background()
	repo := s.newStore()

	first := &models.Registration{Name: "A", Email: "a@x.com", Phone: "1", SelectedTrainings: ""}
	second := &models.Registration{Name: "B", Email: "b@x.com", Phone: "2", SelectedTrainings: "Yoga"}
	s.Require().NoError(repo.Create(ctx, first))
	s.Require().NoError(repo.Create(ctx, second))

	s.NotZero(first.ID)
	s.NotZero(second.ID)
	s.NotEqual(first.ID, second.ID)
}

func (s *ContractSuite) TestFindAllReturnsInsertionOrder() {
	ctx := context.Background()
	repo := s.newStore()

	names := []string{"Jane Doe", "John Roe", "Asha Rao"}
	for _, name := range names {
		s.Require().NoError(repo.Create(ctx, &models.Registration{Name: name, Email: "e", Phone: "p"}))
	}

	all, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, len(names))
	for i, reg := range all {
		s.Equal(names[i], reg.Name)
	}
}

func (s *ContractSuite) TestFindAllOnEmptyStore() {
	all, err := s.newStore().FindAll(context.Background())
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)
}

func (s *ContractSuite) TestOptionalColumnsRoundTrip() {
	ctx := context.Background()
	repo := s.newStore()

	withRef := &models.Registration{
		Name:              "Jane Doe",
		Email:             "jane@x.com",
		Phone:             "555-1234",
		ConnectedWith:     strPtr("LinkedIn"),
		SelectedTrainings: "Yoga, Meditation",
	}
	withoutRef := &models.Registration{Name: "No Ref", Email: "n@x.com", Phone: "0"}
	s.Require().NoError(repo.Create(ctx, withRef))
	s.Require().NoError(repo.Create(ctx, withoutRef))

	all, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)

	s.Equal(withRef.ID, all[0].ID)
	s.Equal("LinkedIn", models.Deref(all[0].ConnectedWith))
	s.Equal("Yoga, Meditation", all[0].SelectedTrainings)
	s.Nil(all[0].CountryCity)
	s.Nil(all[0].CreatedAt)

	s.Nil(all[1].ConnectedWith)
	s.Equal("", all[1].SelectedTrainings)
}

func (s *ContractSuite) TestRepeatedReadsAreIdentical() {
	ctx := context.Background()
	repo := s.newStore()
	s.Require().NoError(repo.Create(ctx, &models.Registration{Name: "A", Email: "a", Phone: "1"}))
	s.Require().NoError(repo.Create(ctx, &models.Registration{Name: "B", Email: "b", Phone: "2", ConnectedWith: strPtr("Friend")}))

	first, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	second, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Equal(first, second)
}
