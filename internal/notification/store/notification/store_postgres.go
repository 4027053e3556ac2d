package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"nagrik/internal/notification/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	n.ID = id.NewNotificationID()

	var issueID any
	if n.IssueID != nil {
		issueID = uuid.UUID(*n.IssueID)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, recipient_id, message, category, issue_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		uuid.UUID(n.ID), uuid.UUID(n.RecipientID), n.Message, string(n.Category), issueID,
	)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipientID id.UserID) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, message, category, issue_id, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC`,
		uuid.UUID(recipientID),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n         models.Notification
			nID       uuid.UUID
			recipient uuid.UUID
			category  string
			issueID   uuid.NullUUID
		)
		if err := rows.Scan(&nID, &recipient, &n.Message, &category, &issueID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(nID)
		n.RecipientID = id.UserID(recipient)
		n.Category = models.Category(category)
		if issueID.Valid {
			ref := id.IssueID(issueID.UUID)
			n.IssueID = &ref
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_id = $2`,
		uuid.UUID(notificationID), uuid.UUID(recipientID),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
