package issue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"nagrik/internal/issue/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// PostgresStore persists issues in PostgreSQL. The version column carries the
// compare-and-set discipline: status updates name the version they read and
// affect zero rows when it has moved on.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issue store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const issueColumns = `id, reporter_id, title, description, category, status,
	lat, lng, address, media, priority, version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, issue *models.Issue) error {
	media, err := json.Marshal(issue.Media)
	if err != nil {
		return fmt.Errorf("marshal media: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO issues (id, reporter_id, title, description, category, status,
			lat, lng, address, media, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING version, created_at, updated_at`,
		uuid.UUID(issue.ID), uuid.UUID(issue.ReporterID), issue.Title,
		issue.Description, string(issue.Category), string(issue.Status),
		issue.Location.Lat, issue.Location.Lng, issue.Location.Address,
		media, issue.Priority,
	)
	if err := row.Scan(&issue.Version, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, issueID id.IssueID) (*models.Issue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = $1`, uuid.UUID(issueID))
	return scanIssue(row)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, issueID id.IssueID, expectedVersion int64, next models.Status) (*models.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE issues
		SET status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+issueColumns,
		uuid.UUID(issueID), expectedVersion, string(next),
	)
	updated, err := scanIssue(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Zero rows: either the issue is gone or the version moved.
		// Disambiguate so callers get the right error class.
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM issues WHERE id = $1)`, uuid.UUID(issueID),
		).Scan(&exists)
		if checkErr != nil {
			return nil, fmt.Errorf("check issue existence: %w", checkErr)
		}
		if exists {
			return nil, sentinel.ErrVersionConflict
		}
		return nil, sentinel.ErrNotFound
	}
	return updated, err
}

func (s *PostgresStore) AppendMedia(ctx context.Context, issueID id.IssueID, media models.MediaRef) (*models.Issue, error) {
	entry, err := json.Marshal(media)
	if err != nil {
		return nil, fmt.Errorf("marshal media ref: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE issues
		SET media = media || $2::jsonb, updated_at = now()
		WHERE id = $1 AND status NOT IN ('resolved', 'rejected')
		RETURNING `+issueColumns,
		uuid.UUID(issueID), entry,
	)
	updated, err := scanIssue(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM issues WHERE id = $1)`, uuid.UUID(issueID),
		).Scan(&exists)
		if checkErr != nil {
			return nil, fmt.Errorf("check issue existence: %w", checkErr)
		}
		if exists {
			return nil, sentinel.ErrInvalidState
		}
		return nil, sentinel.ErrNotFound
	}
	return updated, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []*models.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*models.Issue, error) {
	var (
		issue     models.Issue
		issueID   uuid.UUID
		reporter  uuid.UUID
		category  string
		status    string
		mediaJSON []byte
	)
	err := row.Scan(&issueID, &reporter, &issue.Title, &issue.Description,
		&category, &status, &issue.Location.Lat, &issue.Location.Lng,
		&issue.Location.Address, &mediaJSON, &issue.Priority, &issue.Version,
		&issue.CreatedAt, &issue.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan issue: %w", err)
	}

	issue.ID = id.IssueID(issueID)
	issue.ReporterID = id.UserID(reporter)
	issue.Category = models.Category(category)
	issue.Status = models.Status(status)
	if err := json.Unmarshal(mediaJSON, &issue.Media); err != nil {
		return nil, fmt.Errorf("unmarshal media: %w", err)
	}
	return &issue, nil
}
