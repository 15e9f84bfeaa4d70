package notifications

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ignite/consent-notifications/internal/pkg/logger"
)

// Response messages returned to callers.
const (
	MessageSubscribed   = "Subscribed"
	MessageEmailSent    = "Email Sent"
	MessageUnsubscribed = "Unsubscribed"
)

// DefaultCooldown is the minimum interval between two confirmation emails to
// the same address.
const DefaultCooldown = time.Minute

// Config holds the service settings that come from application config.
type Config struct {
	// DefaultListID is the provider list every confirmed contact joins.
	DefaultListID string
	// AppURL is the public site used to build confirmation links.
	AppURL   string
	Cooldown time.Duration
}

// Dependencies are the collaborators the service orchestrates.
type Dependencies struct {
	Persons   PersonRepository
	Consents  ConsentRepository
	Ledger    EmailLedger
	Campaigns CampaignRepository
	Marketing MarketingProvider
	Mailer    Dispatcher
}

// Service implements consent confirmation and subscription. It is safe for
// concurrent use; all state lives behind the repositories.
type Service struct {
	persons   PersonRepository
	consents  ConsentRepository
	ledger    EmailLedger
	campaigns CampaignRepository
	marketing MarketingProvider
	mailer    Dispatcher

	cfg     Config
	locks   Locker
	rec     Recorder
	now     func() time.Time
	newHash func() (string, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for the resend cooldown.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashGenerator overrides the possession-proof hash generator.
func WithHashGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newHash = gen }
}

// WithLocker serializes confirmation sends per address. Without it two
// concurrent requests may both pass the cooldown check.
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locks = l }
}

// WithRecorder attaches an instrumentation sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

// NewService creates a notifications service.
func NewService(deps Dependencies, cfg Config, opts ...Option) *Service {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	s := &Service{
		persons:   deps.Persons,
		consents:  deps.Consents,
		ledger:    deps.Ledger,
		campaigns: deps.Campaigns,
		marketing: deps.Marketing,
		mailer:    deps.Mailer,
		cfg:       cfg,
		rec:       nopRecorder{},
		now:       time.Now,
		newHash:   generateHash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of a consent operation. Either Message is set, or
// Email and Subscribed describe the new subscription state.
type Result struct {
	Message    string
	Email      string
	Subscribed bool
}

// MessageBody is the JSON shape of a message-only result.
type MessageBody struct {
	Message string `json:"message"`
}

// SubscriptionBody is the JSON shape of a subscription-state result.
type SubscriptionBody struct {
	Email      string `json:"email"`
	Subscribed bool   `json:"subscribed"`
}

// Body returns the JSON response body for the result.
func (r Result) Body() any {
	if r.Message != "" {
		return MessageBody{Message: r.Message}
	}
	return SubscriptionBody{Email: r.Email, Subscribed: r.Subscribed}
}

func message(msg string) Result { return Result{Message: msg} }

func subscription(email string, subscribed bool) Result {
	return Result{Email: email, Subscribed: subscribed}
}

// optional turns ErrNotFound into a nil record.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// marketingFailed counts a failed provider call. Transient failures are
// logged as warnings; everything else needs attention and is an error.
func (s *Service) marketingFailed(op string, err error) {
	s.rec.MarketingError(op)
	var r interface{ Retryable() bool }
	if errors.As(err, &r) && r.Retryable() {
		logger.Warn("marketing call failed", "op", op, "error", err)
		return
	}
	logger.Error("marketing call failed", "op", op, "error", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateHash returns 32 random bytes, hex encoded.
func generateHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type nopRecorder struct{}

func (nopRecorder) Confirmation(string)         {}
func (nopRecorder) Subscription(string, string) {}
func (nopRecorder) MarketingError(string)       {}
