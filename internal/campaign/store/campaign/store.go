// Package campaign provides the durable stores for campaigns and their
// participant sets.
package campaign

import (
	"context"

	"nagrik/internal/campaign/models"
	id "nagrik/pkg/domain"
)

// Store is the persistence contract for campaigns.
type Store interface {
	// Create persists a new campaign.
	Create(ctx context.Context, c *models.Campaign) error

	// Get returns the campaign or sentinel.ErrNotFound.
	Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)

	// List returns all campaigns, soonest first.
	List(ctx context.Context) ([]*models.Campaign, error)

	// UpdateStatus moves the campaign's schedule state.
	UpdateStatus(ctx context.Context, campaignID id.CampaignID, status models.Status) (*models.Campaign, error)

	// AddParticipant adds a user to the participant set. Fails with
	// sentinel.ErrDuplicate when the user already joined; the check and
	// the insert are one atomic operation.
	AddParticipant(ctx context.Context, campaignID id.CampaignID, userID id.UserID) error

	// Participants returns the campaign's participant user IDs.
	Participants(ctx context.Context, campaignID id.CampaignID) ([]id.UserID, error)
}
