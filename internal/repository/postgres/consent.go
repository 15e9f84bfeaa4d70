package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

// ConsentRepo implements notifications.ConsentRepository against PostgreSQL.
type ConsentRepo struct{ db *sql.DB }

// NewConsentRepo creates a Postgres-backed unregistered consent repository.
func NewConsentRepo(db *sql.DB) *ConsentRepo { return &ConsentRepo{db: db} }

func (r *ConsentRepo) get(ctx context.Context, op, where string, args ...any) (*domain.UnregisteredConsent, error) {
	var c domain.UnregisteredConsent
	var hash sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, consent, mail_hash, created_at, updated_at
		FROM unregistered_notification_consents
		WHERE `+where, args...,
	).Scan(&c.ID, &c.Email, &c.Consent, &hash, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notifications.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.MailHash = hash.String
	return &c, nil
}

func (r *ConsentRepo) FindConsented(ctx context.Context, email string) (*domain.UnregisteredConsent, error) {
	return r.get(ctx, "get consented email", `email = $1 AND consent = true`, email)
}

func (r *ConsentRepo) FindByEmailAndHash(ctx context.Context, email, hash string) (*domain.UnregisteredConsent, error) {
	return r.get(ctx, "get consent by hash", `email = $1 AND mail_hash = $2`, email, hash)
}

func (r *ConsentRepo) UpsertHash(ctx context.Context, email, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO unregistered_notification_consents (id, email, consent, mail_hash, created_at, updated_at)
		VALUES ($1, $2, false, $3, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET mail_hash = EXCLUDED.mail_hash, updated_at = NOW()
	`, uuid.New().String(), email, hash)
	if err != nil {
		return fmt.Errorf("upsert consent hash: %w", err)
	}
	return nil
}

func (r *ConsentRepo) UpdateConsent(ctx context.Context, email string, consent bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE unregistered_notification_consents SET consent = $2, updated_at = NOW() WHERE email = $1`,
		email, consent,
	)
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}
