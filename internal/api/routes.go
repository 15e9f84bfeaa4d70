package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/consent-notifications/internal/auth"
	"github.com/ignite/consent-notifications/internal/metrics"
)

// RouterDeps are the handlers and middleware the router mounts. Health and
// Metrics are optional.
type RouterDeps struct {
	Notifications  NotificationService
	Verifier       *auth.Verifier
	Health         *HealthChecker
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// SetupRoutes configures all API routes.
func SetupRoutes(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Health != nil {
		r.Get("/health", d.Health.HandleHealth)
		r.Get("/health/live", d.Health.HandleLiveness)
		r.Get("/health/ready", d.Health.HandleReadiness)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	h := NewNotificationHandlers(d.Notifications)
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Post("/send-confirm-email", h.SendConfirmation)
		r.Post("/public/subscribe", h.SubscribePublic)
		r.Post("/public/unsubscribe", h.UnsubscribePublic)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.Verifier))
			r.Post("/subscribe", h.Subscribe)
			r.Post("/unsubscribe", h.Unsubscribe)
		})
	})

	return r
}
