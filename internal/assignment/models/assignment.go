// Package models holds worker assignment records.
package models

import (
	"time"

	id "nagrik/pkg/domain"
)

// Status is the assignment's own lifecycle, separate from the issue's.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the assignment is finished.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Assignment records one worker being put on an issue. An issue may be
// reassigned over time, but at most one assignment is non-terminal at once.
type Assignment struct {
	ID          id.AssignmentID `json:"id"`
	IssueID     id.IssueID      `json:"issue_id"`
	AssigneeID  id.UserID       `json:"assignee_id"`
	AssignerID  id.UserID       `json:"assigner_id"`
	Status      Status          `json:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
