package notifications

import (
	"context"
	"time"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/pkg/distlock"
)

// PersonRepository is the data access contract for registered persons.
// Lookups return ErrNotFound when no row matches.
type PersonRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Person, error)
	FindByEmailAndHash(ctx context.Context, email, hash string) (*domain.Person, error)
	FindByKeycloakID(ctx context.Context, keycloakID string) (*domain.Person, error)
	UpdateMailHash(ctx context.Context, id, hash string) error
	UpdateNewsletter(ctx context.Context, id string, newsletter bool) error
}

// ConsentRepository is the data access contract for unregistered consent
// records, keyed by email.
type ConsentRepository interface {
	// FindConsented returns the record for email only if consent is true.
	FindConsented(ctx context.Context, email string) (*domain.UnregisteredConsent, error)
	FindByEmailAndHash(ctx context.Context, email, hash string) (*domain.UnregisteredConsent, error)
	// UpsertHash creates the record with the hash or replaces the hash of an
	// existing one. Consent is left untouched on update.
	UpsertHash(ctx context.Context, email, hash string) error
	UpdateConsent(ctx context.Context, email string, consent bool) error
}

// EmailLedger records when transactional emails were last sent.
type EmailLedger interface {
	FindLast(ctx context.Context, email string, typ domain.EmailType) (*domain.EmailSentRecord, error)
	Create(ctx context.Context, rec *domain.EmailSentRecord) error
	UpdateDateSent(ctx context.Context, id string, sentAt time.Time) error
}

// CampaignRepository resolves campaigns and their marketing lists.
type CampaignRepository interface {
	GetWithLists(ctx context.Context, id string) (*domain.Campaign, error)
	CreateNotificationList(ctx context.Context, list *domain.NotificationList) error
}

// MarketingProvider is the external marketing-list platform.
type MarketingProvider interface {
	CreateNewContactList(ctx context.Context, name string) (string, error)
	AddContactsToList(ctx context.Context, params domain.ContactsToList) error
	AddToUnsubscribed(ctx context.Context, emails []string) error
}

// Dispatcher renders and sends a templated email.
type Dispatcher interface {
	SendFromTemplate(ctx context.Context, tmpl domain.TemplateEmail, to domain.Recipients) error
}

// Locker hands out distributed locks keyed by name.
type Locker interface {
	NewLock(key string, ttl time.Duration) distlock.DistLock
}

// Recorder receives outcome counts for instrumentation.
type Recorder interface {
	Confirmation(outcome string)
	Subscription(path, outcome string)
	MarketingError(op string)
}
