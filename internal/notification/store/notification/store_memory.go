package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"nagrik/internal/notification/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// InMemoryStore keeps notifications in memory; doubles as the test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.NotificationID]*models.Notification

	// FailFor makes Create fail for the given recipients, letting tests
	// exercise partial fan-out failure.
	FailFor map[id.UserID]error
}

// NewMemory creates an empty in-memory notification store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemoryStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailFor[n.RecipientID]; ok {
		return err
	}

	n.ID = id.NewNotificationID()
	n.CreatedAt = time.Now()
	copied := *n
	s.records[n.ID] = &copied
	return nil
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, recipientID id.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notification
	for _, n := range s.records {
		if n.RecipientID == recipientID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.records[notificationID]
	if !ok || n.RecipientID != recipientID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}
