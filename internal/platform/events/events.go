// Package events defines the lifecycle event stream. Events are emitted after
// an authoritative store write commits; delivery is best-effort and must never
// block or fail the operation that produced the event.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Action names one observable state change in the system.
type Action string

const (
	ActionStatusChanged  Action = "status_changed"
	ActionIssueVerified  Action = "issue_verified"
	ActionPointsCredited Action = "points_credited"
	ActionIssueAssigned  Action = "issue_assigned"
	ActionCampaignJoined Action = "campaign_joined"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so publishers can fan out however they like.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	IssueID   string    `json:"issue_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	EventKey  string    `json:"event_key,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Publisher delivers events to an external stream.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close()
}

// Publish is the nil-safe helper services call. Failures are logged and
// swallowed; event delivery is advisory, the store write is authoritative.
func Publish(ctx context.Context, publisher Publisher, logger *slog.Logger, event Event) {
	if publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit lifecycle event",
			"action", event.Action,
			"issue_id", event.IssueID,
			"error", err,
		)
	}
}
