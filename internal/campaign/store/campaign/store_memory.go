package campaign

import (
	"context"
	"sort"
	"sync"
	"time"

	"nagrik/internal/campaign/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// InMemoryStore keeps campaigns and participant sets in maps guarded by a
// mutex. It doubles as the test fake.
type InMemoryStore struct {
	mu           sync.RWMutex
	campaigns    map[id.CampaignID]*models.Campaign
	participants map[id.CampaignID]map[id.UserID]time.Time
}

// NewMemory creates an empty in-memory campaign store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		campaigns:    make(map[id.CampaignID]*models.Campaign),
		participants: make(map[id.CampaignID]map[id.UserID]time.Time),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[c.ID]; exists {
		return sentinel.ErrDuplicate
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	copied := *c
	s.campaigns[c.ID] = &copied
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Campaign, 0, len(s.campaigns))
	for _, stored := range s.campaigns {
		copied := *stored
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, campaignID id.CampaignID, status models.Status) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	copied := *stored
	return &copied, nil
}

func (s *InMemoryStore) AddParticipant(_ context.Context, campaignID id.CampaignID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[campaignID]; !ok {
		return sentinel.ErrNotFound
	}
	joined, ok := s.participants[campaignID]
	if !ok {
		joined = make(map[id.UserID]time.Time)
		s.participants[campaignID] = joined
	}
	if _, exists := joined[userID]; exists {
		return sentinel.ErrDuplicate
	}
	joined[userID] = time.Now()
	return nil
}

func (s *InMemoryStore) Participants(_ context.Context, campaignID id.CampaignID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	joined := s.participants[campaignID]
	out := make([]id.UserID, 0, len(joined))
	for userID := range joined {
		out = append(out, userID)
	}
	sort.Slice(out, func(i, j int) bool { return joined[out[i]].Before(joined[out[j]]) })
	return out, nil
}
