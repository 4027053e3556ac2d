//go:build integration

package verification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"nagrik/internal/verification/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
	"nagrik/pkg/testutil/containers"
)

type PostgresVerificationSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresVerificationSuite(t *testing.T) {
	suite.Run(t, new(PostgresVerificationSuite))
}

func (s *PostgresVerificationSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresVerificationSuite) TearDownSuite() {
	if s.pg != nil {
		_ = s.pg.DB.Close()
		_ = s.pg.Container.Terminate(context.Background())
	}
}

func (s *PostgresVerificationSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

// seedIssue inserts the parent issue row the verification FK needs.
func (s *PostgresVerificationSuite) seedIssue() id.IssueID {
	issueID := id.NewIssueID()
	_, err := s.pg.DB.ExecContext(context.Background(), `
		INSERT INTO issues (id, reporter_id, title, category, lat, lng)
		VALUES ($1, $2, 'Pothole', 'pothole', 12.97, 77.59)`,
		uuid.UUID(issueID), uuid.New())
	s.Require().NoError(err)
	return issueID
}

func (s *PostgresVerificationSuite) TestUpsert() {
	ctx := context.Background()

	s.Run("insert then read round-trips", func() {
		issueID := s.seedIssue()

		stored, err := s.store.Upsert(ctx, &models.Verification{
			IssueID:         issueID,
			Verified:        true,
			ConfidenceScore: 92,
			Tags:            []string{"pothole"},
		})
		s.Require().NoError(err)
		s.True(stored.Verified)
		s.Equal(92, stored.ConfidenceScore)
		s.Equal([]string{"pothole"}, stored.Tags)

		got, err := s.store.Get(ctx, issueID)
		s.Require().NoError(err)
		s.True(got.Verified)
	})

	s.Run("verified never flips back to false", func() {
		issueID := s.seedIssue()

		_, err := s.store.Upsert(ctx, &models.Verification{
			IssueID: issueID, Verified: true, ConfidenceScore: 92, Tags: []string{"pothole"},
		})
		s.Require().NoError(err)

		stored, err := s.store.Upsert(ctx, &models.Verification{
			IssueID: issueID, Verified: false, ConfidenceScore: 40,
		})
		s.Require().NoError(err)
		s.True(stored.Verified)
		s.Equal(40, stored.ConfidenceScore)
	})

	s.Run("unverified record upgrades", func() {
		issueID := s.seedIssue()

		_, err := s.store.Upsert(ctx, &models.Verification{IssueID: issueID, ConfidenceScore: 30})
		s.Require().NoError(err)

		stored, err := s.store.Upsert(ctx, &models.Verification{
			IssueID: issueID, Verified: true, ConfidenceScore: 88, Tags: []string{"garbage"},
		})
		s.Require().NoError(err)
		s.True(stored.Verified)
		s.Equal(88, stored.ConfidenceScore)
	})

	s.Run("duplicate_of sticks once set", func() {
		issueID := s.seedIssue()
		original := s.seedIssue()

		_, err := s.store.Upsert(ctx, &models.Verification{IssueID: issueID, DuplicateOf: &original})
		s.Require().NoError(err)

		stored, err := s.store.Upsert(ctx, &models.Verification{IssueID: issueID, Verified: true})
		s.Require().NoError(err)
		s.Require().NotNil(stored.DuplicateOf)
		s.Equal(original, *stored.DuplicateOf)
	})
}

func (s *PostgresVerificationSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), id.NewIssueID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
