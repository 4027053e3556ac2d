//go:build integration

package issue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"nagrik/internal/issue/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
	"nagrik/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pg != nil {
		_ = s.pg.DB.Close()
		_ = s.pg.Container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) seed() *models.Issue {
	issue := &models.Issue{
		ID:         id.NewIssueID(),
		ReporterID: id.NewUserID(),
		Title:      "Overflowing bin at the market",
		Category:   models.CategoryGarbage,
		Status:     models.StatusPending,
		Location:   models.Location{Lat: 12.97, Lng: 77.59, Address: "KR Market"},
	}
	s.Require().NoError(s.store.Create(context.Background(), issue))
	return issue
}

// =============================================================================
// Conditional status writes
// =============================================================================

func (s *PostgresStoreSuite) TestUpdateStatus() {
	ctx := context.Background()

	s.Run("matching version commits and bumps", func() {
		issue := s.seed()

		updated, err := s.store.UpdateStatus(ctx, issue.ID, issue.Version, models.StatusVerified)
		s.Require().NoError(err)
		s.Equal(models.StatusVerified, updated.Status)
		s.EqualValues(issue.Version+1, updated.Version)
	})

	s.Run("stale version is a conflict, not a not-found", func() {
		issue := s.seed()
		_, err := s.store.UpdateStatus(ctx, issue.ID, issue.Version, models.StatusVerified)
		s.Require().NoError(err)

		_, err = s.store.UpdateStatus(ctx, issue.ID, issue.Version, models.StatusRejected)
		s.ErrorIs(err, sentinel.ErrVersionConflict)
	})

	s.Run("missing issue is not found", func() {
		_, err := s.store.UpdateStatus(ctx, id.NewIssueID(), 1, models.StatusVerified)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("racing writers commit exactly one bump", func() {
		issue := s.seed()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.UpdateStatus(ctx, issue.ID, issue.Version, models.StatusVerified); err == nil {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		s.Equal(1, winners)

		stored, err := s.store.Get(ctx, issue.ID)
		s.Require().NoError(err)
		s.EqualValues(issue.Version+1, stored.Version)
	})
}

// =============================================================================
// Media
// =============================================================================

func (s *PostgresStoreSuite) TestAppendMedia() {
	ctx := context.Background()

	s.Run("appends to the JSONB array in order", func() {
		issue := s.seed()

		first := models.MediaRef{ID: id.NewMediaID(), URL: "https://media.local/1.jpg", Kind: models.MediaKindImage}
		second := models.MediaRef{ID: id.NewMediaID(), URL: "https://media.local/2.jpg", Kind: models.MediaKindImage}

		_, err := s.store.AppendMedia(ctx, issue.ID, first)
		s.Require().NoError(err)
		updated, err := s.store.AppendMedia(ctx, issue.ID, second)
		s.Require().NoError(err)

		s.Require().Len(updated.Media, 2)
		s.Equal(first.URL, updated.Media[0].URL)
		s.Equal(second.URL, updated.Media[1].URL)
	})

	s.Run("terminal issue freezes media", func() {
		issue := s.seed()
		_, err := s.store.UpdateStatus(ctx, issue.ID, issue.Version, models.StatusRejected)
		s.Require().NoError(err)

		_, err = s.store.AppendMedia(ctx, issue.ID, models.MediaRef{ID: id.NewMediaID(), URL: "https://media.local/3.jpg"})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *PostgresStoreSuite) TestGetRoundTrip() {
	issue := s.seed()

	stored, err := s.store.Get(context.Background(), issue.ID)
	s.Require().NoError(err)
	s.Equal(issue.ID, stored.ID)
	s.Equal(issue.ReporterID, stored.ReporterID)
	s.Equal("KR Market", stored.Location.Address)
	s.Equal(models.StatusPending, stored.Status)
	s.Empty(stored.Media)
}

func (s *PostgresStoreSuite) TestList() {
	for range 3 {
		s.seed()
	}

	issues, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Len(issues, 3)
}
