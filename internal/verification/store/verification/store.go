// Package verification provides the durable stores for verification records.
// Records are keyed one-to-one by issue and the verified flag is monotonic:
// an upsert may raise it to true but never lower it back to false.
package verification

import (
	"context"

	"nagrik/internal/verification/models"
	id "nagrik/pkg/domain"
)

// Store is the persistence contract for verification records.
type Store interface {
	// Get returns the record for the issue or sentinel.ErrNotFound.
	Get(ctx context.Context, issueID id.IssueID) (*models.Verification, error)

	// Upsert writes the record, merging with any existing row so that a
	// stored verified=true is never downgraded. It returns the merged
	// record as stored.
	Upsert(ctx context.Context, record *models.Verification) (*models.Verification, error)
}
