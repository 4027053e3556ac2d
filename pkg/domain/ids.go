// Package domain holds typed identifiers shared across modules. Wrapping
// uuid.UUID in distinct types makes cross-entity assignment a compile error.
package domain

import (
	"github.com/google/uuid"

	dErrors "nagrik/pkg/domain-errors"
)

type (
	// UserID identifies a citizen, worker, or admin account.
	UserID uuid.UUID

	// IssueID identifies a reported civic issue.
	IssueID uuid.UUID

	// MediaID identifies one media item attached to an issue.
	MediaID uuid.UUID

	// AssignmentID identifies a worker assignment against an issue.
	AssignmentID uuid.UUID

	// NotificationID identifies a delivered notification record.
	NotificationID uuid.UUID

	// CampaignID identifies a community campaign.
	CampaignID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id IssueID) String() string        { return uuid.UUID(id).String() }
func (id MediaID) String() string        { return uuid.UUID(id).String() }
func (id AssignmentID) String() string   { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id CampaignID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id IssueID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id MediaID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CampaignID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewIssueID returns a fresh random IssueID.
func NewIssueID() IssueID { return IssueID(uuid.New()) }

// NewMediaID returns a fresh random MediaID.
func NewMediaID() MediaID { return MediaID(uuid.New()) }

// NewAssignmentID returns a fresh random AssignmentID.
func NewAssignmentID() AssignmentID { return AssignmentID(uuid.New()) }

// NewNotificationID returns a fresh random NotificationID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// NewCampaignID returns a fresh random CampaignID.
func NewCampaignID() CampaignID { return CampaignID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
// Parsing happens at trust boundaries (handlers); internals carry typed IDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID parses and validates a UserID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user_id")
	return UserID(parsed), err
}

// ParseIssueID parses and validates an IssueID from its string form.
func ParseIssueID(raw string) (IssueID, error) {
	parsed, err := parseUUID(raw, "issue_id")
	return IssueID(parsed), err
}

// ParseMediaID parses and validates a MediaID from its string form.
func ParseMediaID(raw string) (MediaID, error) {
	parsed, err := parseUUID(raw, "media_id")
	return MediaID(parsed), err
}

// ParseAssignmentID parses and validates an AssignmentID from its string form.
func ParseAssignmentID(raw string) (AssignmentID, error) {
	parsed, err := parseUUID(raw, "assignment_id")
	return AssignmentID(parsed), err
}

// ParseNotificationID parses and validates a NotificationID from its string form.
func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw, "notification_id")
	return NotificationID(parsed), err
}

// ParseCampaignID parses and validates a CampaignID from its string form.
func ParseCampaignID(raw string) (CampaignID, error) {
	parsed, err := parseUUID(raw, "campaign_id")
	return CampaignID(parsed), err
}
