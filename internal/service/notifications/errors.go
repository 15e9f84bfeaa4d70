package notifications

import "errors"

// Sentinel errors for the notifications service layer.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidCredential = errors.New("invalid hash/email")
	ErrConsentRequired   = errors.New("notification consent should be provided")
	ErrEmailRequired     = errors.New("email is required")
)
