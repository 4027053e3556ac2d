// Package issue provides the durable stores for the issue aggregate. Both
// implementations honor the same conditional-write contract: UpdateStatus
// succeeds only when the caller presents the version it read, so racing
// transitions lose explicitly instead of overwriting each other.
package issue

import (
	"context"

	"nagrik/internal/issue/models"
	id "nagrik/pkg/domain"
)

// Store is the persistence contract for issues.
type Store interface {
	// Create persists a new issue. The store assigns Version, CreatedAt,
	// and UpdatedAt.
	Create(ctx context.Context, issue *models.Issue) error

	// Get returns the issue or sentinel.ErrNotFound.
	Get(ctx context.Context, issueID id.IssueID) (*models.Issue, error)

	// UpdateStatus performs the compare-and-set status write. It fails with
	// sentinel.ErrVersionConflict when the stored version no longer matches
	// expectedVersion, and sentinel.ErrNotFound when the issue is missing.
	UpdateStatus(ctx context.Context, issueID id.IssueID, expectedVersion int64, next models.Status) (*models.Issue, error)

	// AppendMedia adds a media reference. Media is append-only and frozen
	// once the issue reaches a terminal state (sentinel.ErrInvalidState).
	AppendMedia(ctx context.Context, issueID id.IssueID, media models.MediaRef) (*models.Issue, error)

	// List returns all issues, newest first.
	List(ctx context.Context) ([]*models.Issue, error)
}
