package email

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/osteele/liquid"

	"github.com/ignite/consent-notifications/internal/domain"
)

//go:embed templates/*.liquid
var templateFS embed.FS

// Rendered is the output of a template render.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type compiled struct {
	subject *liquid.Template
	html    *liquid.Template
	text    *liquid.Template
}

// Renderer renders the embedded Liquid templates. Templates are compiled once
// at construction; Render is safe for concurrent use.
type Renderer struct {
	templates map[domain.TemplateKind]compiled
	globals   map[string]any
}

// NewRenderer compiles every embedded template. globals are merged into the
// bindings of every render; per-email data wins on key clashes.
func NewRenderer(globals map[string]any) (*Renderer, error) {
	engine := liquid.NewEngine()
	r := &Renderer{templates: make(map[domain.TemplateKind]compiled), globals: globals}

	for _, kind := range []domain.TemplateKind{domain.TemplateConfirmConsent} {
		var c compiled
		parts := []struct {
			ext string
			dst **liquid.Template
		}{
			{"subject", &c.subject},
			{"html", &c.html},
			{"txt", &c.text},
		}
		for _, p := range parts {
			name := fmt.Sprintf("templates/%s.%s.liquid", kind, p.ext)
			src, err := fs.ReadFile(templateFS, name)
			if err != nil {
				return nil, fmt.Errorf("read template %s: %w", name, err)
			}
			tpl, perr := engine.ParseTemplate(src)
			if perr != nil {
				return nil, fmt.Errorf("parse template %s: %w", name, perr)
			}
			*p.dst = tpl
		}
		r.templates[kind] = c
	}
	return r, nil
}

// Render renders the subject, HTML and text bodies of kind.
func (r *Renderer) Render(kind domain.TemplateKind, data map[string]any) (*Rendered, error) {
	c, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", kind)
	}

	bindings := make(liquid.Bindings, len(r.globals)+len(data))
	for k, v := range r.globals {
		bindings[k] = v
	}
	for k, v := range data {
		bindings[k] = v
	}

	subject, err := c.subject.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render %s subject: %w", kind, err)
	}
	html, err := c.html.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render %s html: %w", kind, err)
	}
	text, err := c.text.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render %s text: %w", kind, err)
	}
	return &Rendered{Subject: strings.TrimSpace(subject), HTML: html, Text: text}, nil
}
