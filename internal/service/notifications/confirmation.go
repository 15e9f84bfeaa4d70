package notifications

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/pkg/logger"
)

// SendConfirmation mails a consent confirmation link to email unless the
// address is already subscribed or a link was sent within the cooldown.
//
// The new hash is stored before the email goes out and the send registry is
// written only after a successful send. A failed send leaves the new hash in
// place; asking again simply issues another one.
func (s *Service) SendConfirmation(ctx context.Context, email string) (Result, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Result{}, ErrEmailRequired
	}

	person, err := optional(s.persons.FindByEmail(ctx, email))
	if err != nil {
		return Result{}, fmt.Errorf("find person: %w", err)
	}
	if person != nil && person.Newsletter {
		s.rec.Confirmation("subscribed")
		return message(MessageSubscribed), nil
	}

	consent, err := optional(s.consents.FindConsented(ctx, email))
	if err != nil {
		return Result{}, fmt.Errorf("find consent: %w", err)
	}
	if consent != nil {
		s.rec.Confirmation("subscribed")
		return message(MessageSubscribed), nil
	}

	if s.locks != nil {
		lock := s.locks.NewLock("notifications:confirm:"+email, s.cfg.Cooldown)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("acquire confirmation lock: %w", err)
		}
		if !acquired {
			s.rec.Confirmation("locked")
			logger.Debug("confirmation already in flight", "email", email)
			return message(MessageEmailSent), nil
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release confirmation lock", "email", email, "error", err)
			}
		}()
	}

	last, err := optional(s.ledger.FindLast(ctx, email, domain.EmailTypeConfirmConsent))
	if err != nil {
		return Result{}, fmt.Errorf("find last confirmation: %w", err)
	}
	now := s.now()
	if last != nil && now.Sub(last.DateSent) < s.cfg.Cooldown {
		s.rec.Confirmation("cooldown")
		return message(MessageEmailSent), nil
	}

	hash, err := s.newHash()
	if err != nil {
		return Result{}, fmt.Errorf("generate hash: %w", err)
	}
	if person == nil {
		if err := s.consents.UpsertHash(ctx, email, hash); err != nil {
			return Result{}, fmt.Errorf("store consent hash: %w", err)
		}
	} else {
		if err := s.persons.UpdateMailHash(ctx, person.ID, hash); err != nil {
			return Result{}, fmt.Errorf("store person hash: %w", err)
		}
	}

	tmpl := domain.TemplateEmail{
		Kind: domain.TemplateConfirmConsent,
		Data: map[string]any{
			"email":          email,
			"hash":           hash,
			"subscribe_link": s.subscribeLink(email, hash),
		},
	}
	if err := s.mailer.SendFromTemplate(ctx, tmpl, domain.Recipients{To: []string{email}}); err != nil {
		return Result{}, fmt.Errorf("send confirmation: %w", err)
	}

	if last != nil {
		if err := s.ledger.UpdateDateSent(ctx, last.ID, now); err != nil {
			return Result{}, fmt.Errorf("update send registry: %w", err)
		}
	} else {
		rec := &domain.EmailSentRecord{Email: email, Type: domain.EmailTypeConfirmConsent, DateSent: now}
		if err := s.ledger.Create(ctx, rec); err != nil {
			return Result{}, fmt.Errorf("create send registry: %w", err)
		}
	}

	s.rec.Confirmation("sent")
	logger.Info("consent confirmation sent", "email", email, "registered", person != nil)
	return message(MessageEmailSent), nil
}

func (s *Service) subscribeLink(email, hash string) string {
	q := url.Values{}
	q.Set("hash", hash)
	q.Set("email", email)
	return strings.TrimRight(s.cfg.AppURL, "/") + "/notifications/subscribe?" + q.Encode()
}
