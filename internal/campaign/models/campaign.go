// Package models holds cleanup campaign records.
package models

import (
	"time"

	id "nagrik/pkg/domain"
)

// Status is the campaign's schedule state.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Campaign is a scheduled community cleanup drive. Joining an ongoing or
// upcoming campaign awards JoinBonus points, once per user.
type Campaign struct {
	ID        id.CampaignID `json:"id"`
	Name      string        `json:"name"`
	Date      time.Time     `json:"date"`
	Status    Status        `json:"status"`
	JoinBonus int           `json:"join_bonus"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// JoinResult reports whether the join awarded the bonus.
type JoinResult struct {
	CampaignID id.CampaignID `json:"campaign_id"`
	UserID     id.UserID     `json:"user_id"`
	Credited   bool          `json:"credited"`
}
