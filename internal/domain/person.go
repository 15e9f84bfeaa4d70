package domain

import "time"

// Person is a registered platform user. Newsletter is the marketing consent
// flag; MailHash is the possession-proof token mailed to the user.
type Person struct {
	ID         string    `json:"id" db:"id"`
	KeycloakID string    `json:"keycloak_id,omitempty" db:"keycloak_id"`
	Email      string    `json:"email" db:"email"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Newsletter bool      `json:"newsletter" db:"newsletter"`
	MailHash   string    `json:"-" db:"mail_hash"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// UnregisteredConsent tracks marketing consent for an email address that has
// no Person record. Email is the unique key.
type UnregisteredConsent struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Consent   bool      `json:"consent" db:"consent"`
	MailHash  string    `json:"-" db:"mail_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
