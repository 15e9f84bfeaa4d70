package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/pkg/logger"
)

// SubscribePublicInput is a confirmation-link click from an anonymous visitor.
type SubscribePublicInput struct {
	Email      string
	Consent    bool
	Hash       string
	CampaignID string
}

// holder is the record a verified email/hash pair resolved to. Exactly one of
// person and consent is set.
type holder struct {
	person  *domain.Person
	consent *domain.UnregisteredConsent
}

func (h holder) consented() bool {
	if h.person != nil {
		return h.person.Newsletter
	}
	return h.consent.Consent
}

func (h holder) contact(email string) domain.Contact {
	c := domain.Contact{Email: email}
	if h.person != nil {
		c.FirstName = h.person.FirstName
		c.LastName = h.person.LastName
	}
	return c
}

// resolveHolder verifies that hash was issued to email. The person lookup
// runs first; a consented person short-circuits the unregistered lookup.
func (s *Service) resolveHolder(ctx context.Context, email, hash string) (holder, error) {
	person, err := optional(s.persons.FindByEmailAndHash(ctx, email, hash))
	if err != nil {
		return holder{}, fmt.Errorf("find person: %w", err)
	}
	if person != nil && person.Newsletter {
		return holder{person: person}, nil
	}

	consent, err := optional(s.consents.FindByEmailAndHash(ctx, email, hash))
	if err != nil {
		return holder{}, fmt.Errorf("find consent: %w", err)
	}
	switch {
	case person != nil:
		return holder{person: person}, nil
	case consent != nil:
		return holder{consent: consent}, nil
	default:
		return holder{}, ErrInvalidCredential
	}
}

// SubscribePublic confirms consent for the holder of a hash mailed by
// SendConfirmation and adds the address to the marketing lists.
func (s *Service) SubscribePublic(ctx context.Context, in SubscribePublicInput) (Result, error) {
	email := normalizeEmail(in.Email)
	hash := strings.TrimSpace(in.Hash)
	if email == "" || hash == "" {
		return Result{}, ErrInvalidCredential
	}

	h, err := s.resolveHolder(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			s.rec.Subscription("public", "invalid")
		}
		return Result{}, err
	}
	if h.consented() {
		s.rec.Subscription("public", "already")
		return message(MessageSubscribed), nil
	}
	if !in.Consent {
		s.rec.Subscription("public", "no_consent")
		return subscription(email, false), nil
	}

	listIDs := make([]string, 0, 2)
	if in.CampaignID != "" {
		listID, err := s.campaignListID(ctx, in.CampaignID)
		if err != nil {
			return Result{}, err
		}
		if listID != "" {
			listIDs = append(listIDs, listID)
		}
	}
	listIDs = append(listIDs, s.cfg.DefaultListID)

	params := domain.ContactsToList{
		Contacts: []domain.Contact{h.contact(email)},
		ListIDs:  listIDs,
	}
	if err := s.marketing.AddContactsToList(ctx, params); err != nil {
		s.marketingFailed("add_contacts", err)
		return Result{}, fmt.Errorf("add contact to lists: %w", err)
	}

	if h.person != nil {
		if err := s.persons.UpdateNewsletter(ctx, h.person.ID, true); err != nil {
			return Result{}, fmt.Errorf("update person newsletter: %w", err)
		}
	} else {
		if err := s.consents.UpdateConsent(ctx, email, true); err != nil {
			return Result{}, fmt.Errorf("update consent: %w", err)
		}
	}

	s.rec.Subscription("public", "subscribed")
	logger.Info("public subscription confirmed", "email", email, "lists", len(listIDs))
	return subscription(email, true), nil
}

// campaignListID returns the marketing list of a campaign, creating it on the
// provider and persisting it when the campaign has none yet. An unknown
// campaign yields an empty id.
func (s *Service) campaignListID(ctx context.Context, campaignID string) (string, error) {
	campaign, err := optional(s.campaigns.GetWithLists(ctx, campaignID))
	if err != nil {
		return "", fmt.Errorf("find campaign: %w", err)
	}
	if campaign == nil {
		logger.Warn("subscription for unknown campaign", "campaign_id", campaignID)
		return "", nil
	}
	if len(campaign.NotificationLists) > 0 {
		return campaign.NotificationLists[0].ID, nil
	}

	name := campaign.Title
	if name == "" {
		name = campaign.ID
	}
	listID, err := s.marketing.CreateNewContactList(ctx, name)
	if err != nil {
		s.marketingFailed("create_list", err)
		return "", fmt.Errorf("create campaign list: %w", err)
	}
	list := &domain.NotificationList{ID: listID, Name: name, CampaignID: campaign.ID}
	if err := s.campaigns.CreateNotificationList(ctx, list); err != nil {
		return "", fmt.Errorf("store campaign list: %w", err)
	}
	logger.Info("campaign list created", "campaign_id", campaign.ID, "list_id", listID)
	return listID, nil
}

// Subscribe adds an authenticated person to the default marketing list.
// consent must be explicitly true.
func (s *Service) Subscribe(ctx context.Context, keycloakID string, consent bool) (Result, error) {
	if !consent {
		s.rec.Subscription("authenticated", "no_consent")
		return Result{}, ErrConsentRequired
	}

	person, err := s.persons.FindByKeycloakID(ctx, keycloakID)
	if err != nil {
		return Result{}, fmt.Errorf("find person: %w", err)
	}

	params := domain.ContactsToList{
		Contacts: []domain.Contact{{Email: person.Email, FirstName: person.FirstName, LastName: person.LastName}},
		ListIDs:  []string{s.cfg.DefaultListID},
	}
	if err := s.marketing.AddContactsToList(ctx, params); err != nil {
		s.marketingFailed("add_contacts", err)
		return Result{}, fmt.Errorf("add contact to lists: %w", err)
	}
	if err := s.persons.UpdateNewsletter(ctx, person.ID, true); err != nil {
		return Result{}, fmt.Errorf("update person newsletter: %w", err)
	}

	s.rec.Subscription("authenticated", "subscribed")
	logger.Info("subscription confirmed", "email", person.Email, "person_id", person.ID)
	return subscription(person.Email, true), nil
}
