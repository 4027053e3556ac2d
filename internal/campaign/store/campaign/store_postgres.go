package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"nagrik/internal/campaign/models"
	id "nagrik/pkg/domain"
	"nagrik/pkg/platform/sentinel"
)

// PostgresStore persists campaigns in PostgreSQL. The participant table's
// composite primary key is the join-once guard.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed campaign store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const campaignColumns = `id, name, campaign_date, status, join_bonus, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Campaign) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (id, name, campaign_date, status, join_bonus)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		uuid.UUID(c.ID), c.Name, c.Date, string(c.Status), c.JoinBonus,
	)
	err := row.Scan(&c.CreatedAt, &c.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`,
		uuid.UUID(campaignID))
	return scanCampaign(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY campaign_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, campaignID id.CampaignID, status models.Status) (*models.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE campaigns
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+campaignColumns,
		uuid.UUID(campaignID), string(status),
	)
	return scanCampaign(row)
}

func (s *PostgresStore) AddParticipant(ctx context.Context, campaignID id.CampaignID, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_participants (campaign_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (campaign_id, user_id) DO NOTHING`,
		uuid.UUID(campaignID), uuid.UUID(userID),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("participant rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) Participants(ctx context.Context, campaignID id.CampaignID) ([]id.UserID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM campaign_participants
		WHERE campaign_id = $1
		ORDER BY joined_at ASC`,
		uuid.UUID(campaignID),
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var users []id.UserID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		users = append(users, id.UserID(raw))
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c          models.Campaign
		campaignID uuid.UUID
		status     string
	)
	err := row.Scan(&campaignID, &c.Name, &c.Date, &status, &c.JoinBonus,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan campaign: %w", err)
	}

	c.ID = id.CampaignID(campaignID)
	c.Status = models.Status(status)
	return &c, nil
}
