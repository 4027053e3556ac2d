// Package models holds the points ledger records. Points are an append-only
// ledger of uniquely-keyed credit events; a user's total is derived, never
// stored as a mutable counter.
package models

import (
	"fmt"
	"time"

	id "nagrik/pkg/domain"
)

// CreditEntry is one rewarded event. The (UserID, EventKey) pair is unique;
// uniqueness, not locking, is what makes crediting exactly-once.
type CreditEntry struct {
	UserID    id.UserID `json:"user_id"`
	EventKey  string    `json:"event_key"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditResult reports whether a credit actually occurred, so callers can
// phrase user-facing messages accurately.
type CreditResult struct {
	Credited bool `json:"credited"`
	NewTotal int  `json:"new_total"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	UserID id.UserID `json:"user_id"`
	Total  int       `json:"total"`
}

// VerifyEventKey is the event key for an issue's first successful
// verification.
func VerifyEventKey(issueID id.IssueID) string {
	return fmt.Sprintf("verify:%s", issueID)
}

// ResolveEventKey is the event key for one participant's resolution bonus.
func ResolveEventKey(issueID id.IssueID, userID id.UserID) string {
	return fmt.Sprintf("resolve:%s:%s", issueID, userID)
}

// CampaignJoinEventKey is the event key for joining a campaign.
func CampaignJoinEventKey(campaignID id.CampaignID, userID id.UserID) string {
	return fmt.Sprintf("campaign-join:%s:%s", campaignID, userID)
}
