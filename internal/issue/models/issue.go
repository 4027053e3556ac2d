// Package models holds the issue aggregate and its lifecycle rules.
package models

import (
	"time"

	id "nagrik/pkg/domain"
)

// Category classifies a reported issue.
type Category string

const (
	CategoryPothole     Category = "pothole"
	CategoryGarbage     Category = "garbage"
	CategoryStreetlight Category = "streetlight"
	CategoryWater       Category = "water"
	CategoryOther       Category = "other"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPothole, CategoryGarbage, CategoryStreetlight, CategoryWater, CategoryOther:
		return true
	}
	return false
}

// Status is the issue's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// transitions is the allowed transition table. Absence means rejection; no
// caller discipline is trusted. Assignment may precede verification, so
// in_progress is reachable straight from pending.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusVerified:   true,
		StatusInProgress: true,
		StatusRejected:   true,
	},
	StatusVerified: {
		StatusInProgress: true,
		StatusRejected:   true,
	},
	StatusInProgress: {
		StatusResolved: true,
	},
}

// CanTransition reports whether from → to is permitted by the lifecycle.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// MediaKind distinguishes attached media types.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaRef points at one uploaded media item. Storage lives elsewhere; the
// core only needs a stable reference for the verification oracle.
type MediaRef struct {
	ID   id.MediaID `json:"id"`
	URL  string     `json:"url"`
	Kind MediaKind  `json:"kind"`
}

// Location is the reported position of an issue.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Issue is the core aggregate. Version is the compare-and-set token: every
// status write names the version it read, and the store rejects the write if
// the stored version has moved on.
type Issue struct {
	ID          id.IssueID `json:"id"`
	ReporterID  id.UserID  `json:"reporter_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Status      Status     `json:"status"`
	Location    Location   `json:"location"`
	Media       []MediaRef `json:"media"`
	Priority    int        `json:"priority"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TransitionResult reports the outcome of a lifecycle transition request.
type TransitionResult struct {
	IssueID   id.IssueID `json:"issue_id"`
	OldStatus Status     `json:"old_status"`
	NewStatus Status     `json:"new_status"`

	// NoOp is set when the requested target was already in place; no write
	// happened and no side effects fired.
	NoOp bool `json:"no_op,omitempty"`

	// Degraded is set when the transition committed but one or more side
	// effects (notifications, points) failed. The status change stands.
	Degraded bool `json:"degraded,omitempty"`
}

// StatusChanged is the single logical event a committed transition emits.
type StatusChanged struct {
	Issue     *Issue
	OldStatus Status
	NewStatus Status
	ActorID   id.UserID
}
