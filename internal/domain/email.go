package domain

import "time"

// EmailType enumerates the kinds of transactional email tracked in the
// send registry.
type EmailType string

const (
	EmailTypeConfirmConsent EmailType = "confirmConsent"
)

// EmailSentRecord is one row of the email send registry. There is at most one
// row per (email, type); resends refresh DateSent.
type EmailSentRecord struct {
	ID       string    `json:"id" db:"id"`
	Email    string    `json:"email" db:"email"`
	Type     EmailType `json:"type" db:"type"`
	DateSent time.Time `json:"date_sent" db:"date_sent"`
}

// TemplateKind selects a transactional email template.
type TemplateKind string

const (
	TemplateConfirmConsent TemplateKind = "confirm-notifications-consent"
)

// TemplateEmail is a template selection plus the variables it renders with.
type TemplateEmail struct {
	Kind TemplateKind   `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

// Recipients lists the addresses a templated email is delivered to.
type Recipients struct {
	To []string `json:"to"`
}

// EmailMessage is a fully rendered email ready for a sender.
type EmailMessage struct {
	From     string
	FromName string
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}
