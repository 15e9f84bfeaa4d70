package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New(nil)
	m.Confirmation("sent")
	m.Confirmation("sent")
	m.Confirmation("cooldown")
	m.Subscription("public", "subscribed")
	m.MarketingError("add_contacts")

	out := scrape(t, m)
	assert.Contains(t, out, `notifications_confirmations_total{outcome="sent"} 2`)
	assert.Contains(t, out, `notifications_confirmations_total{outcome="cooldown"} 1`)
	assert.Contains(t, out, `notifications_subscriptions_total{outcome="subscribed",path="public"} 1`)
	assert.Contains(t, out, `notifications_marketing_errors_total{op="add_contacts"} 1`)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New(nil)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Post("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	out := scrape(t, m)
	assert.Contains(t, out, `notifications_http_request_duration_seconds_count{method="POST",route="/items/{id}",status="201"} 1`)
}
