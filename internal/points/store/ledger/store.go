// Package ledger provides the durable stores for the points ledger.
package ledger

import (
	"context"

	"nagrik/internal/points/models"
	id "nagrik/pkg/domain"
)

// Store is the persistence contract for credit entries.
type Store interface {
	// Insert records a credit entry. It fails with sentinel.ErrDuplicate when
	// an entry for the same (user, event key) already exists; the insert and
	// the uniqueness check are one atomic operation.
	Insert(ctx context.Context, entry *models.CreditEntry) error

	// Total returns the sum of a user's credit amounts. Unknown users have a
	// total of zero, not an error.
	Total(ctx context.Context, userID id.UserID) (int, error)

	// Leaderboard returns the top users by total, descending.
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}
