package email

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/ignite/consent-notifications/internal/domain"
)

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender creates an SMTP sender. Empty credentials skip AUTH.
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, username, password)}
}

func (s *SMTPSender) Name() string { return "smtp" }

// Send dials the relay for every message. The context is only checked before
// dialing; gomail has no cancellation support.
func (s *SMTPSender) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(buildSMTPMessage(msg))
}

func buildSMTPMessage(msg *domain.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.From, msg.FromName)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	} else {
		m.SetBody("text/html", msg.HTMLBody)
	}
	return m
}
