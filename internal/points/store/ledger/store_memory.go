package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"nagrik/internal/points/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in memory with the same uniqueness guarantee
// as the Postgres primary key; doubles as the test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.UserID]map[string]*models.CreditEntry
	totals  map[id.UserID]int
}

// NewMemory creates an empty in-memory ledger store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[id.UserID]map[string]*models.CreditEntry),
		totals:  make(map[id.UserID]int),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, entry *models.CreditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.entries[entry.UserID]
	if !ok {
		byKey = make(map[string]*models.CreditEntry)
		s.entries[entry.UserID] = byKey
	}
	if _, exists := byKey[entry.EventKey]; exists {
		return sentinel.ErrDuplicate
	}

	entry.CreatedAt = time.Now()
	copied := *entry
	byKey[entry.EventKey] = &copied
	s.totals[entry.UserID] += entry.Amount
	return nil
}

func (s *InMemoryStore) Total(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[userID], nil
}

func (s *InMemoryStore) Leaderboard(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LeaderboardEntry, 0, len(s.totals))
	for userID, total := range s.totals {
		out = append(out, models.LeaderboardEntry{UserID: userID, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
