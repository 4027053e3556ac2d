package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"nagrik/internal/verification/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// PostgresStore persists verification records in PostgreSQL. The upsert
// merges with the existing row so verified stays monotonic under races.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const verificationColumns = `issue_id, verified, confidence_score, tags,
	duplicate_of, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, issueID id.IssueID) (*models.Verification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE issue_id = $1`,
		uuid.UUID(issueID))
	return scanVerification(row)
}

func (s *PostgresStore) Upsert(ctx context.Context, record *models.Verification) (*models.Verification, error) {
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	if record.Tags == nil {
		tags = []byte(`[]`)
	}

	var duplicateOf uuid.NullUUID
	if record.DuplicateOf != nil {
		duplicateOf = uuid.NullUUID{UUID: uuid.UUID(*record.DuplicateOf), Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO verifications (issue_id, verified, confidence_score, tags, duplicate_of)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (issue_id) DO UPDATE SET
			verified = verifications.verified OR EXCLUDED.verified,
			confidence_score = EXCLUDED.confidence_score,
			tags = EXCLUDED.tags,
			duplicate_of = COALESCE(EXCLUDED.duplicate_of, verifications.duplicate_of),
			updated_at = now()
		RETURNING `+verificationColumns,
		uuid.UUID(record.IssueID), record.Verified, record.ConfidenceScore,
		tags, duplicateOf,
	)
	return scanVerification(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*models.Verification, error) {
	var (
		record      models.Verification
		issueID     uuid.UUID
		tagsJSON    []byte
		duplicateOf uuid.NullUUID
	)
	err := row.Scan(&issueID, &record.Verified, &record.ConfidenceScore,
		&tagsJSON, &duplicateOf, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification: %w", err)
	}

	record.IssueID = id.IssueID(issueID)
	if err := json.Unmarshal(tagsJSON, &record.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if duplicateOf.Valid {
		dup := id.IssueID(duplicateOf.UUID)
		record.DuplicateOf = &dup
	}
	return &record, nil
}
