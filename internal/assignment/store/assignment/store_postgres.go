package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"nagrik/internal/assignment/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// PostgresStore persists assignments in PostgreSQL. The partial unique index
// on (issue_id) over non-terminal rows is the one-active-assignment guard.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed assignment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const assignmentColumns = `id, issue_id, assignee_id, assigner_id, status,
	completed_at, created_at, updated_at`

func (s *PostgresStore) CreateActive(ctx context.Context, a *models.Assignment) error {
	a.ID = id.NewAssignmentID()
	a.Status = models.StatusAssigned

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO assignments (id, issue_id, assignee_id, assigner_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		uuid.UUID(a.ID), uuid.UUID(a.IssueID), uuid.UUID(a.AssigneeID),
		uuid.UUID(a.AssignerID), string(a.Status),
	)
	err := row.Scan(&a.CreatedAt, &a.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, assignmentID id.AssignmentID) (*models.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`,
		uuid.UUID(assignmentID))
	return scanAssignment(row)
}

func (s *PostgresStore) Complete(ctx context.Context, assignmentID id.AssignmentID, status models.Status) (*models.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE assignments
		SET status = $2, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status IN ('assigned', 'in_progress')
		RETURNING `+assignmentColumns,
		uuid.UUID(assignmentID), string(status),
	)
	updated, err := scanAssignment(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM assignments WHERE id = $1)`,
			uuid.UUID(assignmentID),
		).Scan(&exists)
		if checkErr != nil {
			return nil, fmt.Errorf("check assignment existence: %w", checkErr)
		}
		if exists {
			return nil, sentinel.ErrInvalidState
		}
		return nil, sentinel.ErrNotFound
	}
	return updated, err
}

func (s *PostgresStore) ListByAssignee(ctx context.Context, assigneeID id.UserID) ([]*models.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE assignee_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(assigneeID))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AssigneeIDs(ctx context.Context, issueID id.IssueID) ([]id.UserID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT assignee_id FROM assignments WHERE issue_id = $1`,
		uuid.UUID(issueID))
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var assignee uuid.UUID
		if err := rows.Scan(&assignee); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		out = append(out, id.UserID(assignee))
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var (
		a           models.Assignment
		aID         uuid.UUID
		issueID     uuid.UUID
		assignee    uuid.UUID
		assigner    uuid.UUID
		status      string
		completedAt sql.NullTime
	)
	err := row.Scan(&aID, &issueID, &assignee, &assigner, &status,
		&completedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan assignment: %w", err)
	}

	a.ID = id.AssignmentID(aID)
	a.IssueID = id.IssueID(issueID)
	a.AssigneeID = id.UserID(assignee)
	a.AssignerID = id.UserID(assigner)
	a.Status = models.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return &a, nil
}
