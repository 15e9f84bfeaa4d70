package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

// Postgres error codes handled by the repositories.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// CampaignRepo implements notifications.CampaignRepository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// GetWithLists loads a campaign and its notification lists, oldest first.
func (r *CampaignRepo) GetWithLists(ctx context.Context, id string) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(title, '') FROM campaigns WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notifications.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, campaign_id, created_at
		FROM notification_lists
		WHERE campaign_id = $1
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list notification lists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.NotificationList
		if err := rows.Scan(&l.ID, &l.Name, &l.CampaignID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification list: %w", err)
		}
		c.NotificationLists = append(c.NotificationLists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification lists: %w", err)
	}
	return &c, nil
}

// CreateNotificationList stores a provider list for a campaign. Storing the
// same list id twice is a no-op. A campaign deleted since it was read is a
// plain error, not ErrNotFound: the caller's person still exists.
func (r *CampaignRepo) CreateNotificationList(ctx context.Context, list *domain.NotificationList) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_lists (id, name, campaign_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`, list.ID, list.Name, list.CampaignID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return nil
		case pqForeignKeyViolation:
			return fmt.Errorf("create notification list: campaign %s no longer exists: %w", list.CampaignID, err)
		}
	}
	if err != nil {
		return fmt.Errorf("create notification list: %w", err)
	}
	return nil
}
