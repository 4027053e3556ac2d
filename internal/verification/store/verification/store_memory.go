package verification

import (
	"context"
	"sync"
	"time"

	"nagrik/internal/verification/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// InMemoryStore keeps verification records in a map guarded by a mutex. It
// implements the same monotonic merge as the Postgres store and doubles as
// the test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.IssueID]*models.Verification
}

// NewMemory creates an empty in-memory verification store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.IssueID]*models.Verification)}
}

func (s *InMemoryStore) Get(_ context.Context, issueID id.IssueID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.records[issueID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(stored), nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *models.Verification) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored, ok := s.records[record.IssueID]
	if !ok {
		fresh := cloneRecord(record)
		fresh.CreatedAt = now
		fresh.UpdatedAt = now
		s.records[record.IssueID] = fresh
		return cloneRecord(fresh), nil
	}

	stored.Verified = stored.Verified || record.Verified
	stored.ConfidenceScore = record.ConfidenceScore
	stored.Tags = append([]string(nil), record.Tags...)
	if record.DuplicateOf != nil {
		dup := *record.DuplicateOf
		stored.DuplicateOf = &dup
	}
	stored.UpdatedAt = now
	return cloneRecord(stored), nil
}

func cloneRecord(record *models.Verification) *models.Verification {
	copied := *record
	copied.Tags = append([]string(nil), record.Tags...)
	if record.DuplicateOf != nil {
		dup := *record.DuplicateOf
		copied.DuplicateOf = &dup
	}
	return &copied
}
