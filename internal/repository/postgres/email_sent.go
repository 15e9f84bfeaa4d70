package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

// EmailSentRepo implements notifications.EmailLedger against PostgreSQL.
type EmailSentRepo struct{ db *sql.DB }

// NewEmailSentRepo creates a Postgres-backed email send registry.
func NewEmailSentRepo(db *sql.DB) *EmailSentRepo { return &EmailSentRepo{db: db} }

func (r *EmailSentRepo) FindLast(ctx context.Context, email string, typ domain.EmailType) (*domain.EmailSentRecord, error) {
	var rec domain.EmailSentRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, type, date_sent
		FROM email_sent_registry
		WHERE email = $1 AND type = $2
		ORDER BY date_sent DESC
		LIMIT 1
	`, email, typ).Scan(&rec.ID, &rec.Email, &rec.Type, &rec.DateSent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notifications.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get last email sent: %w", err)
	}
	return &rec, nil
}

// Create inserts a registry row. A concurrent insert for the same
// (email, type) refreshes date_sent instead of failing.
func (r *EmailSentRepo) Create(ctx context.Context, rec *domain.EmailSentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO email_sent_registry (id, email, type, date_sent)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email, type) DO UPDATE SET date_sent = EXCLUDED.date_sent
		RETURNING id
	`, rec.ID, rec.Email, rec.Type, rec.DateSent).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("create email sent: %w", err)
	}
	return nil
}

func (r *EmailSentRepo) UpdateDateSent(ctx context.Context, id string, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE email_sent_registry SET date_sent = $2 WHERE id = $1`, id, sentAt)
	if err != nil {
		return fmt.Errorf("update email sent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}
