// Package service implements campaign management and the join-once bonus.
// The participant set's uniqueness is the join guard; the points ledger's
// event key is the bonus guard. Either alone suffices, together they make
// double-crediting unreachable.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nagrik/internal/campaign/models"
	campaignStore "nagrik/internal/campaign/store/campaign"
	"nagrik/internal/platform/events"
	pointsModels "nagrik/internal/points/models"
	id "nagrik/pkg/domain"
	dErrors "nagrik/pkg/domain-errors"
	"nagrik/pkg/platform/sentinel"
)

// PointsLedger credits the join bonus exactly once per event key.
type PointsLedger interface {
	CreditOnce(ctx context.Context, userID id.UserID, eventKey string, amount int) (pointsModels.CreditResult, error)
}

type Service struct {
	store     campaignStore.Store
	points    PointsLedger
	logger    *slog.Logger
	publisher events.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func New(store campaignStore.Store, points PointsLedger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("campaign store is required")
	}
	if points == nil {
		return nil, fmt.Errorf("points ledger is required")
	}

	svc := &Service{
		store:  store,
		points: points,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateRequest carries a new campaign.
type CreateRequest struct {
	Name      string
	Date      time.Time
	JoinBonus int
}

// Create registers a new campaign in the upcoming state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Campaign, error) {
	if req.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if req.Date.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date is required")
	}
	if req.JoinBonus < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "join_bonus must not be negative")
	}

	campaign := &models.Campaign{
		ID:        id.NewCampaignID(),
		Name:      req.Name,
		Date:      req.Date,
		Status:    models.StatusUpcoming,
		JoinBonus: req.JoinBonus,
	}
	if err := s.store.Create(ctx, campaign); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
	}
	return campaign, nil
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	campaign, err := s.store.Get(ctx, campaignID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	return campaign, nil
}

// List returns all campaigns, soonest first.
func (s *Service) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return campaigns, nil
}

// UpdateStatus moves the campaign's schedule state.
func (s *Service) UpdateStatus(ctx context.Context, campaignID id.CampaignID, status models.Status) (*models.Campaign, error) {
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown campaign status %q", status)
	}

	campaign, err := s.store.UpdateStatus(ctx, campaignID, status)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update campaign")
	}
	return campaign, nil
}

// Join adds the user to the campaign and credits the join bonus once. A
// repeat join is a conflict; a completed campaign refuses joiners.
func (s *Service) Join(ctx context.Context, campaignID id.CampaignID, userID id.UserID) (models.JoinResult, error) {
	if userID.IsNil() {
		return models.JoinResult{}, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}

	campaign, err := s.Get(ctx, campaignID)
	if err != nil {
		return models.JoinResult{}, err
	}
	if campaign.Status == models.StatusCompleted {
		return models.JoinResult{}, dErrors.New(dErrors.CodeInvariantViolation, "campaign is completed")
	}

	err = s.store.AddParticipant(ctx, campaignID, userID)
	if errors.Is(err, sentinel.ErrDuplicate) {
		return models.JoinResult{}, dErrors.New(dErrors.CodeConflict, "already joined this campaign")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.JoinResult{}, dErrors.New(dErrors.CodeNotFound, "campaign not found")
	}
	if err != nil {
		return models.JoinResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to join campaign")
	}

	result := models.JoinResult{CampaignID: campaignID, UserID: userID}
	if campaign.JoinBonus > 0 {
		credit, err := s.points.CreditOnce(ctx, userID,
			pointsModels.CampaignJoinEventKey(campaignID, userID), campaign.JoinBonus)
		if err != nil {
			// The join itself is committed; a failed bonus only degrades it.
			s.logger.WarnContext(ctx, "campaign join bonus credit failed",
				"campaign_id", campaignID,
				"user_id", userID,
				"error", err,
			)
		} else {
			result.Credited = credit.Credited
		}
	}

	events.Publish(ctx, s.publisher, s.logger, events.Event{
		Action:  events.ActionCampaignJoined,
		ActorID: userID.String(),
	})

	s.logger.InfoContext(ctx, "campaign joined",
		"campaign_id", campaignID,
		"user_id", userID,
		"credited", result.Credited,
	)
	return result, nil
}

// Participants returns the campaign's participant user IDs.
func (s *Service) Participants(ctx context.Context, campaignID id.CampaignID) ([]id.UserID, error) {
	users, err := s.store.Participants(ctx, campaignID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participants")
	}
	return users, nil
}
