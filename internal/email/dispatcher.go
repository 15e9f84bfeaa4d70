package email

import (
	"context"
	"fmt"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/pkg/logger"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *domain.EmailMessage) error
	Name() string
}

// Dispatcher renders templates and sends them from a fixed address.
type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	from     string
	fromName string
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(renderer *Renderer, sender Sender, from, fromName string) *Dispatcher {
	return &Dispatcher{renderer: renderer, sender: sender, from: from, fromName: fromName}
}

// SendFromTemplate renders tmpl and sends it to the recipients.
func (d *Dispatcher) SendFromTemplate(ctx context.Context, tmpl domain.TemplateEmail, to domain.Recipients) error {
	if len(to.To) == 0 {
		return fmt.Errorf("send %s: no recipients", tmpl.Kind)
	}

	out, err := d.renderer.Render(tmpl.Kind, tmpl.Data)
	if err != nil {
		return err
	}

	msg := &domain.EmailMessage{
		From:     d.from,
		FromName: d.fromName,
		To:       to.To,
		Subject:  out.Subject,
		HTMLBody: out.HTML,
		TextBody: out.Text,
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s via %s: %w", tmpl.Kind, d.sender.Name(), err)
	}

	logger.Info("email sent", "template", string(tmpl.Kind), "provider", d.sender.Name(), "email", to.To[0])
	return nil
}
