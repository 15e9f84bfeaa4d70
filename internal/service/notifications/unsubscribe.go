package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/consent-notifications/internal/pkg/logger"
)

// UnsubscribePublic withdraws consent for the holder of a mailed hash. The
// address is added to the provider's global unsubscribe group before the
// local flag is cleared.
func (s *Service) UnsubscribePublic(ctx context.Context, email, hash string) (Result, error) {
	email = normalizeEmail(email)
	hash = strings.TrimSpace(hash)
	if email == "" || hash == "" {
		return Result{}, ErrInvalidCredential
	}

	h, err := s.resolveHolder(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			s.rec.Subscription("public_unsubscribe", "invalid")
		}
		return Result{}, err
	}
	if !h.consented() {
		s.rec.Subscription("public_unsubscribe", "already")
		return message(MessageUnsubscribed), nil
	}

	if err := s.marketing.AddToUnsubscribed(ctx, []string{email}); err != nil {
		s.marketingFailed("unsubscribe", err)
		return Result{}, fmt.Errorf("unsubscribe contact: %w", err)
	}

	if h.person != nil {
		if err := s.persons.UpdateNewsletter(ctx, h.person.ID, false); err != nil {
			return Result{}, fmt.Errorf("update person newsletter: %w", err)
		}
	} else {
		if err := s.consents.UpdateConsent(ctx, email, false); err != nil {
			return Result{}, fmt.Errorf("update consent: %w", err)
		}
	}

	s.rec.Subscription("public_unsubscribe", "unsubscribed")
	logger.Info("public unsubscribe", "email", email)
	return subscription(email, false), nil
}

// Unsubscribe withdraws newsletter consent for an authenticated person.
func (s *Service) Unsubscribe(ctx context.Context, keycloakID string) (Result, error) {
	person, err := s.persons.FindByKeycloakID(ctx, keycloakID)
	if err != nil {
		return Result{}, fmt.Errorf("find person: %w", err)
	}
	if !person.Newsletter {
		s.rec.Subscription("unsubscribe", "already")
		return message(MessageUnsubscribed), nil
	}

	if err := s.marketing.AddToUnsubscribed(ctx, []string{person.Email}); err != nil {
		s.marketingFailed("unsubscribe", err)
		return Result{}, fmt.Errorf("unsubscribe contact: %w", err)
	}
	if err := s.persons.UpdateNewsletter(ctx, person.ID, false); err != nil {
		return Result{}, fmt.Errorf("update person newsletter: %w", err)
	}

	s.rec.Subscription("unsubscribe", "unsubscribed")
	logger.Info("unsubscribe", "email", person.Email, "person_id", person.ID)
	return subscription(person.Email, false), nil
}
