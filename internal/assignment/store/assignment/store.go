// Package assignment provides the durable stores for worker assignments.
package assignment

import (
	"context"

	"nagrik/internal/assignment/models"
	id "nagrik/pkg/domain"
)

// Store is the persistence contract for assignments.
type Store interface {
	// CreateActive persists a new assignment in the assigned state. It fails
	// with sentinel.ErrDuplicate when the issue already has a non-terminal
	// assignment; the check and the insert are one atomic operation.
	CreateActive(ctx context.Context, a *models.Assignment) error

	// Get returns the assignment or sentinel.ErrNotFound.
	Get(ctx context.Context, assignmentID id.AssignmentID) (*models.Assignment, error)

	// Complete moves an assignment to a terminal status and stamps
	// CompletedAt. Fails with sentinel.ErrInvalidState when already terminal.
	Complete(ctx context.Context, assignmentID id.AssignmentID, status models.Status) (*models.Assignment, error)

	// ListByAssignee returns a worker's assignments, newest first.
	ListByAssignee(ctx context.Context, assigneeID id.UserID) ([]*models.Assignment, error)

	// AssigneeIDs returns the distinct assignees an issue has ever had,
	// regardless of assignment status. Used for resolution fan-out.
	AssigneeIDs(ctx context.Context, issueID id.IssueID) ([]id.UserID, error)
}
