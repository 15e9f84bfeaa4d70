package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/ignite/consent-notifications/internal/auth"
	"github.com/ignite/consent-notifications/internal/pkg/httputil"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

// NotificationService is the consent workflow the handlers drive.
type NotificationService interface {
	SendConfirmation(ctx context.Context, email string) (notifications.Result, error)
	SubscribePublic(ctx context.Context, in notifications.SubscribePublicInput) (notifications.Result, error)
	Subscribe(ctx context.Context, keycloakID string, consent bool) (notifications.Result, error)
	UnsubscribePublic(ctx context.Context, email, hash string) (notifications.Result, error)
	Unsubscribe(ctx context.Context, keycloakID string) (notifications.Result, error)
}

// Client-facing error messages.
const (
	msgInvalidCredential = "Invalid hash/email"
	msgConsentRequired   = "Notification consent should be provided"
	msgPersonNotFound    = "person not found"
)

// NotificationHandlers serves the /api/v1/notifications routes.
type NotificationHandlers struct {
	svc NotificationService
}

func NewNotificationHandlers(svc NotificationService) *NotificationHandlers {
	return &NotificationHandlers{svc: svc}
}

type sendConfirmationRequest struct {
	Email string `json:"email"`
}

type subscribePublicRequest struct {
	Email      string `json:"email"`
	Consent    *bool  `json:"consent"`
	Hash       string `json:"hash"`
	CampaignID string `json:"campaignId,omitempty"`
}

type unsubscribePublicRequest struct {
	Email string `json:"email"`
	Hash  string `json:"hash"`
}

type subscribeRequest struct {
	Consent *bool `json:"consent"`
}

// SendConfirmation handles POST /send-confirm-email.
func (h *NotificationHandlers) SendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req sendConfirmationRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}

	res, err := h.svc.SendConfirmation(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res.Body())
}

// SubscribePublic handles POST /public/subscribe.
func (h *NotificationHandlers) SubscribePublic(w http.ResponseWriter, r *http.Request) {
	var req subscribePublicRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}
	if strings.TrimSpace(req.Hash) == "" {
		httputil.BadRequest(w, "hash is required")
		return
	}
	if req.Consent == nil {
		httputil.BadRequest(w, "consent must be a boolean")
		return
	}

	res, err := h.svc.SubscribePublic(r.Context(), notifications.SubscribePublicInput{
		Email:      req.Email,
		Consent:    *req.Consent,
		Hash:       req.Hash,
		CampaignID: req.CampaignID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res.Body())
}

// UnsubscribePublic handles POST /public/unsubscribe.
func (h *NotificationHandlers) UnsubscribePublic(w http.ResponseWriter, r *http.Request) {
	var req unsubscribePublicRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := validateEmail(req.Email); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}
	if strings.TrimSpace(req.Hash) == "" {
		httputil.BadRequest(w, "hash is required")
		return
	}

	res, err := h.svc.UnsubscribePublic(r.Context(), req.Email, req.Hash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res.Body())
}

// Subscribe handles POST /subscribe for an authenticated caller.
func (h *NotificationHandlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}
	var req subscribeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Consent == nil {
		httputil.BadRequest(w, "consent must be a boolean")
		return
	}

	res, err := h.svc.Subscribe(r.Context(), id.Subject, *req.Consent)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res.Body())
}

// Unsubscribe handles POST /unsubscribe for an authenticated caller.
func (h *NotificationHandlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}

	res, err := h.svc.Unsubscribe(r.Context(), id.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res.Body())
}

func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "email is required"
	}
	if !govalidator.IsEmail(email) {
		return "email must be a valid email address"
	}
	return ""
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notifications.ErrInvalidCredential):
		httputil.BadRequest(w, msgInvalidCredential)
	case errors.Is(err, notifications.ErrConsentRequired):
		httputil.BadRequest(w, msgConsentRequired)
	case errors.Is(err, notifications.ErrEmailRequired):
		httputil.BadRequest(w, "email is required")
	case errors.Is(err, notifications.ErrNotFound):
		httputil.NotFound(w, msgPersonNotFound)
	default:
		httputil.InternalError(w, err)
	}
}
