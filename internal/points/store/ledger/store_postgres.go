package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"nagrik/internal/points/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// PostgresStore persists credit entries in PostgreSQL. The (user_id,
// event_key) primary key is the exactly-once guard: a duplicate credit is a
// conflict at insert time, not a read-then-write decision.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, entry *models.CreditEntry) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO credit_entries (user_id, event_key, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_key) DO NOTHING
		RETURNING created_at`,
		uuid.UUID(entry.UserID), entry.EventKey, entry.Amount,
	)
	err := row.Scan(&entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert credit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Total(ctx context.Context, userID id.UserID) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM credit_entries WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum credits: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, SUM(amount) AS total
		FROM credit_entries
		GROUP BY user_id
		ORDER BY total DESC, user_id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for rows.Next() {
		var (
			userID uuid.UUID
			total  int
		)
		if err := rows.Scan(&userID, &total); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, models.LeaderboardEntry{UserID: id.UserID(userID), Total: total})
	}
	return out, rows.Err()
}
