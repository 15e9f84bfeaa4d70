package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/consent-notifications/internal/auth"
	"github.com/ignite/consent-notifications/internal/metrics"
	"github.com/ignite/consent-notifications/internal/service/notifications"
)

const jwtSecret = "handler-test-secret"

type fakeService struct {
	result notifications.Result
	err    error

	confirmEmail string
	publicInput  notifications.SubscribePublicInput
	subject      string
	consent      bool
	calls        int
}

func (f *fakeService) SendConfirmation(_ context.Context, email string) (notifications.Result, error) {
	f.calls++
	f.confirmEmail = email
	return f.result, f.err
}

func (f *fakeService) SubscribePublic(_ context.Context, in notifications.SubscribePublicInput) (notifications.Result, error) {
	f.calls++
	f.publicInput = in
	return f.result, f.err
}

func (f *fakeService) Subscribe(_ context.Context, keycloakID string, consent bool) (notifications.Result, error) {
	f.calls++
	f.subject = keycloakID
	f.consent = consent
	return f.result, f.err
}

func (f *fakeService) UnsubscribePublic(_ context.Context, email, hash string) (notifications.Result, error) {
	f.calls++
	f.publicInput = notifications.SubscribePublicInput{Email: email, Hash: hash}
	return f.result, f.err
}

func (f *fakeService) Unsubscribe(_ context.Context, keycloakID string) (notifications.Result, error) {
	f.calls++
	f.subject = keycloakID
	return f.result, f.err
}

func newRouter(svc NotificationService) http.Handler {
	return SetupRoutes(RouterDeps{
		Notifications:  svc,
		Verifier:       auth.NewVerifier(jwtSecret, "", ""),
		Metrics:        metrics.New(nil),
		AllowedOrigins: []string{"https://podkrepi.bg"},
	})
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Email: "registered@gmail.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, path, body, authz string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSendConfirmEmail(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Message: notifications.MessageEmailSent}}
	rec := do(t, newRouter(svc), "/api/v1/notifications/send-confirm-email", `{"email":"unregistered@gmail.com"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Email Sent"}`, rec.Body.String())
	assert.Equal(t, "unregistered@gmail.com", svc.confirmEmail)
}

func TestSendConfirmEmail_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "request body is required"},
		{"missing email", `{}`, "email is required"},
		{"bad email", `{"email":"not-an-email"}`, "email must be a valid email address"},
		{"unknown field", `{"email":"a@b.com","extra":1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newRouter(svc), "/api/v1/notifications/send-confirm-email", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.want != "" {
				assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
			}
			assert.Zero(t, svc.calls)
		})
	}
}

func TestPublicSubscribe(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Email: "unregistered@gmail.com", Subscribed: true}}
	rec := do(t, newRouter(svc), "/api/v1/notifications/public/subscribe",
		`{"email":"unregistered@gmail.com","consent":true,"hash":"h","campaignId":"c-1"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"unregistered@gmail.com","subscribed":true}`, rec.Body.String())
	assert.Equal(t, notifications.SubscribePublicInput{
		Email: "unregistered@gmail.com", Consent: true, Hash: "h", CampaignID: "c-1",
	}, svc.publicInput)
}

func TestPublicSubscribe_ConsentFalse(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Email: "unregistered@gmail.com", Subscribed: false}}
	rec := do(t, newRouter(svc), "/api/v1/notifications/public/subscribe",
		`{"email":"unregistered@gmail.com","consent":false,"hash":"h"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"unregistered@gmail.com","subscribed":false}`, rec.Body.String())
	assert.Equal(t, 1, svc.calls)
	assert.False(t, svc.publicInput.Consent)
}

func TestPublicSubscribe_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing hash", `{"email":"a@b.com","consent":true}`, "hash is required"},
		{"missing consent", `{"email":"a@b.com","hash":"h"}`, "consent must be a boolean"},
		{"consent not bool", `{"email":"a@b.com","hash":"h","consent":"yes"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newRouter(svc), "/api/v1/notifications/public/subscribe", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.want != "" {
				assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
			}
			assert.Zero(t, svc.calls)
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"invalid credential", notifications.ErrInvalidCredential, http.StatusBadRequest, `{"error":"Invalid hash/email"}`},
		{"wrapped not found", errors.Join(errors.New("find person"), notifications.ErrNotFound), http.StatusNotFound, `{"error":"person not found"}`},
		{"collaborator failure", errors.New("sendgrid down"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			rec := do(t, newRouter(svc), "/api/v1/notifications/public/subscribe",
				`{"email":"a@b.com","consent":true,"hash":"wrong"}`, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestPublicUnsubscribe(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Message: notifications.MessageUnsubscribed}}
	rec := do(t, newRouter(svc), "/api/v1/notifications/public/unsubscribe", `{"email":"a@b.com","hash":"h"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Unsubscribed"}`, rec.Body.String())
	assert.Equal(t, "h", svc.publicInput.Hash)
}

func TestSubscribe_RequiresToken(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), "/api/v1/notifications/subscribe", `{"consent":true}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestSubscribe(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Email: "registered@gmail.com", Subscribed: true}}
	rec := do(t, newRouter(svc), "/api/v1/notifications/subscribe", `{"consent":true}`, bearer(t, "kc-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"registered@gmail.com","subscribed":true}`, rec.Body.String())
	assert.Equal(t, "kc-1", svc.subject)
	assert.True(t, svc.consent)
}

func TestSubscribe_ConsentRequired(t *testing.T) {
	svc := &fakeService{err: notifications.ErrConsentRequired}
	rec := do(t, newRouter(svc), "/api/v1/notifications/subscribe", `{"consent":false}`, bearer(t, "kc-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Notification consent should be provided"}`, rec.Body.String())
	assert.False(t, svc.consent)
}

func TestUnsubscribe(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Email: "registered@gmail.com", Subscribed: false}}
	rec := do(t, newRouter(svc), "/api/v1/notifications/unsubscribe", ``, bearer(t, "kc-2"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"registered@gmail.com","subscribed":false}`, rec.Body.String())
	assert.Equal(t, "kc-2", svc.subject)
}

func TestMetricsEndpoint(t *testing.T) {
	svc := &fakeService{result: notifications.Result{Message: notifications.MessageSubscribed}}
	h := newRouter(svc)
	do(t, h, "/api/v1/notifications/send-confirm-email", `{"email":"a@b.com"}`, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/notifications/send-confirm-email"`)
}
