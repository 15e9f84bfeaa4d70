package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

// PersonRepo implements notifications.PersonRepository against PostgreSQL.
type PersonRepo struct{ db *sql.DB }

// NewPersonRepo creates a Postgres-backed person repository.
func NewPersonRepo(db *sql.DB) *PersonRepo { return &PersonRepo{db: db} }

const personColumns = `id, COALESCE(keycloak_id, ''), email, COALESCE(first_name, ''), COALESCE(last_name, ''), newsletter, mail_hash, created_at`

func scanPerson(row *sql.Row) (*domain.Person, error) {
	var p domain.Person
	var hash sql.NullString
	err := row.Scan(&p.ID, &p.KeycloakID, &p.Email, &p.FirstName, &p.LastName, &p.Newsletter, &hash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notifications.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.MailHash = hash.String
	return &p, nil
}

// FindByEmail matches case-insensitively: people rows are written by the
// accounts service with the address as entered.
func (r *PersonRepo) FindByEmail(ctx context.Context, email string) (*domain.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE lower(email) = lower($1)`, email))
	if err != nil && !errors.Is(err, notifications.ErrNotFound) {
		return nil, fmt.Errorf("get person by email: %w", err)
	}
	return p, err
}

func (r *PersonRepo) FindByEmailAndHash(ctx context.Context, email, hash string) (*domain.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE lower(email) = lower($1) AND mail_hash = $2`, email, hash))
	if err != nil && !errors.Is(err, notifications.ErrNotFound) {
		return nil, fmt.Errorf("get person by hash: %w", err)
	}
	return p, err
}

func (r *PersonRepo) FindByKeycloakID(ctx context.Context, keycloakID string) (*domain.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE keycloak_id = $1`, keycloakID))
	if err != nil && !errors.Is(err, notifications.ErrNotFound) {
		return nil, fmt.Errorf("get person by keycloak id: %w", err)
	}
	return p, err
}

func (r *PersonRepo) UpdateMailHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, "update person mail hash",
		`UPDATE people SET mail_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

func (r *PersonRepo) UpdateNewsletter(ctx context.Context, id string, newsletter bool) error {
	return r.update(ctx, "update person newsletter",
		`UPDATE people SET newsletter = $2, updated_at = NOW() WHERE id = $1`, id, newsletter)
}

func (r *PersonRepo) update(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}
