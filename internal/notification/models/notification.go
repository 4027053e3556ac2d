// Package models holds notification records and their message templates.
package models

import (
	"fmt"
	"time"

	id "nagrik/pkg/domain"
)

// Category classifies a notification for client-side grouping.
type Category string

const (
	CategoryIssueReport     Category = "issue_report"
	CategoryIssueUpdate     Category = "issue_update"
	CategoryIssueResolution Category = "issue_resolution"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryIssueReport, CategoryIssueUpdate, CategoryIssueResolution:
		return true
	}
	return false
}

// Notification is created by the orchestrator as a side effect of a state
// transition. The core never mutates it except for the read flag.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	RecipientID id.UserID         `json:"recipient_id"`
	Message     string            `json:"message"`
	Category    Category          `json:"category"`
	IssueID     *id.IssueID       `json:"issue_id,omitempty"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ReportedMessage is the template for a freshly reported issue.
func ReportedMessage(title string) string {
	return fmt.Sprintf("Your issue %q has been reported successfully.", title)
}

// StatusMessage is the template for a status change.
func StatusMessage(title, status string) string {
	return fmt.Sprintf("Your issue %q status changed to %q.", title, status)
}

// ResolvedMessage is the template for a resolution, sent to everyone involved.
func ResolvedMessage(title string) string {
	return fmt.Sprintf("The issue %q has been resolved.", title)
}

// MessageFor picks the template for a category.
func MessageFor(category Category, title, status string) string {
	switch category {
	case CategoryIssueReport:
		return ReportedMessage(title)
	case CategoryIssueResolution:
		return ResolvedMessage(title)
	default:
		return StatusMessage(title, status)
	}
}
