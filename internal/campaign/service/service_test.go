package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nagrik/internal/campaign/models"
	campaignStore "nagrik/internal/campaign/store/campaign"
	pointsModels "nagrik/internal/points/models"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
)

// =============================================================================
// Test Fakes
// =============================================================================

type fakeLedger struct {
	mu      sync.Mutex
	seen    map[string]bool
	credits int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: make(map[string]bool)}
}

func (f *fakeLedger) CreditOnce(_ context.Context, userID id.UserID, eventKey string, amount int) (pointsModels.CreditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID.String() + "|" + eventKey
	if f.seen[key] {
		return pointsModels.CreditResult{Credited: false}, nil
	}
	f.seen[key] = true
	f.credits++
	return pointsModels.CreditResult{Credited: true, NewTotal: amount}, nil
}

// =============================================================================
// Campaign Service Test Suite
// =============================================================================

type CampaignSuite struct {
	suite.Suite
	store   *campaignStore.InMemoryStore
	ledger  *fakeLedger
	service *Service
}

func TestCampaignSuite(t *testing.T) {
	suite.Run(t, new(CampaignSuite))
}

func (s *CampaignSuite) SetupTest() {
	s.store = campaignStore.NewMemory()
	s.ledger = newFakeLedger()

	var err error
	s.service, err = New(s.store, s.ledger)
	s.Require().NoError(err)
}

func (s *CampaignSuite) create(bonus int) *models.Campaign {
	campaign, err := s.service.Create(context.Background(), CreateRequest{
		Name:      "River cleanup drive",
		Date:      time.Now().Add(72 * time.Hour),
		JoinBonus: bonus,
	})
	s.Require().NoError(err)
	return campaign
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *CampaignSuite) TestCreate() {
	ctx := context.Background()

	s.Run("starts in the upcoming state", func() {
		campaign := s.create(25)
		s.Equal(models.StatusUpcoming, campaign.Status)
		s.Equal(25, campaign.JoinBonus)
	})

	s.Run("validation", func() {
		_, err := s.service.Create(ctx, CreateRequest{Date: time.Now()})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Create(ctx, CreateRequest{Name: "No date"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Create(ctx, CreateRequest{Name: "Negative bonus", Date: time.Now(), JoinBonus: -1})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Join Tests
// =============================================================================

func (s *CampaignSuite) TestJoin() {
	ctx := context.Background()

	s.Run("first join credits the bonus", func() {
		campaign := s.create(25)
		userID := id.NewUserID()

		result, err := s.service.Join(ctx, campaign.ID, userID)
		s.Require().NoError(err)
		s.True(result.Credited)
		s.Equal(1, s.ledger.credits)
	})

	s.Run("repeat join conflicts and credits nothing more", func() {
		campaign := s.create(25)
		userID := id.NewUserID()

		_, err := s.service.Join(ctx, campaign.ID, userID)
		s.Require().NoError(err)

		_, err = s.service.Join(ctx, campaign.ID, userID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(1, s.ledger.credits)
	})

	s.Run("racing joins admit exactly one", func() {
		campaign := s.create(25)
		userID := id.NewUserID()

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.service.Join(ctx, campaign.ID, userID)
			}()
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			}
		}
		s.Equal(1, winners)
		s.Equal(1, s.ledger.credits)
	})

	s.Run("zero-bonus campaign joins without crediting", func() {
		campaign := s.create(0)
		result, err := s.service.Join(ctx, campaign.ID, id.NewUserID())
		s.Require().NoError(err)
		s.False(result.Credited)
	})

	s.Run("completed campaign refuses joiners", func() {
		campaign := s.create(25)
		_, err := s.service.UpdateStatus(ctx, campaign.ID, models.StatusCompleted)
		s.Require().NoError(err)

		_, err = s.service.Join(ctx, campaign.ID, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("missing campaign is not found", func() {
		_, err := s.service.Join(ctx, id.NewCampaignID(), id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Participants Tests
// =============================================================================

func (s *CampaignSuite) TestParticipants() {
	ctx := context.Background()
	campaign := s.create(10)

	users := []id.UserID{id.NewUserID(), id.NewUserID(), id.NewUserID()}
	for _, userID := range users {
		_, err := s.service.Join(ctx, campaign.ID, userID)
		s.Require().NoError(err)
	}

	got, err := s.service.Participants(ctx, campaign.ID)
	s.Require().NoError(err)
	s.ElementsMatch(users, got)
}
