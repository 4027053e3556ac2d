package issue

import (
	"context"
	"sort"
	"sync"
	"time"

	"nagrik/internal/issue/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// InMemoryStore keeps issues in a map guarded by a mutex. It implements the
// same conditional-write semantics as the Postgres store and doubles as the
// test fake.
type InMemoryStore struct {
	mu     sync.RWMutex
	issues map[id.IssueID]*models.Issue
}

// NewMemory creates an empty in-memory issue store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{issues: make(map[id.IssueID]*models.Issue)}
}

func (s *InMemoryStore) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.issues[issue.ID]; exists {
		return sentinel.ErrDuplicate
	}
	now := time.Now()
	issue.Version = 1
	issue.CreatedAt = now
	issue.UpdatedAt = now
	s.issues[issue.ID] = clone(issue)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, issueID id.IssueID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.issues[issueID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(stored), nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, issueID id.IssueID, expectedVersion int64, next models.Status) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[issueID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return nil, sentinel.ErrVersionConflict
	}
	stored.Status = next
	stored.Version++
	stored.UpdatedAt = time.Now()
	return clone(stored), nil
}

func (s *InMemoryStore) AppendMedia(_ context.Context, issueID id.IssueID, media models.MediaRef) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[issueID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Status.IsTerminal() {
		return nil, sentinel.ErrInvalidState
	}
	stored.Media = append(stored.Media, media)
	stored.UpdatedAt = time.Now()
	return clone(stored), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Issue, 0, len(s.issues))
	for _, stored := range s.issues {
		out = append(out, clone(stored))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// clone copies the issue so callers cannot mutate stored state.
func clone(issue *models.Issue) *models.Issue {
	copied := *issue
	copied.Media = append([]models.MediaRef(nil), issue.Media...)
	return &copied
}
