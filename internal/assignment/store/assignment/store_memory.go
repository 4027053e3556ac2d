package assignment

import (
	"context"
	"sort"
	"sync"
	"time"

	"nagrik/internal/assignment/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// InMemoryStore keeps assignments in memory with the same one-active-per-issue
// guarantee as the Postgres partial unique index; doubles as the test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.AssignmentID]*models.Assignment
}

// NewMemory creates an empty in-memory assignment store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.AssignmentID]*models.Assignment)}
}

func (s *InMemoryStore) CreateActive(_ context.Context, a *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.IssueID == a.IssueID && !existing.Status.IsTerminal() {
			return sentinel.ErrDuplicate
		}
	}

	now := time.Now()
	a.ID = id.NewAssignmentID()
	a.Status = models.StatusAssigned
	a.CreatedAt = now
	a.UpdatedAt = now
	copied := *a
	s.records[a.ID] = &copied
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, assignmentID id.AssignmentID) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.records[assignmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (s *InMemoryStore) Complete(_ context.Context, assignmentID id.AssignmentID, status models.Status) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[assignmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Status.IsTerminal() {
		return nil, sentinel.ErrInvalidState
	}

	now := time.Now()
	stored.Status = status
	stored.CompletedAt = &now
	stored.UpdatedAt = now
	copied := *stored
	return &copied, nil
}

func (s *InMemoryStore) ListByAssignee(_ context.Context, assigneeID id.UserID) ([]*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Assignment
	for _, stored := range s.records {
		if stored.AssigneeID == assigneeID {
			copied := *stored
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AssigneeIDs(_ context.Context, issueID id.IssueID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[id.UserID]struct{})
	var out []id.UserID
	for _, stored := range s.records {
		if stored.IssueID != issueID {
			continue
		}
		if _, dup := seen[stored.AssigneeID]; dup {
			continue
		}
		seen[stored.AssigneeID] = struct{}{}
		out = append(out, stored.AssigneeID)
	}
	return out, nil
}
