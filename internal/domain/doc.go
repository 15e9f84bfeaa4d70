// Package domain holds the records shared by the consent service, its
// Postgres repositories and the marketing and email adapters: people,
// unregistered consents, the email-sent ledger, campaign notification lists
// and marketing contacts.
//
// The package imports nothing from internal/. Types carry json and db
// metadata only.
package domain
