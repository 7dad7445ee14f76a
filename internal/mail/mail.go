// Package mail renders templated messages and delivers them.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is one outbound email. TemplateData is passed to the named template.
type Message struct {
	Recipient    string
	Subject      string
	TemplateName string
	TemplateData any
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer executes the embedded HTML templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses every embedded template. Templates are addressed by the
// name of their define block.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("mail").Option("missingkey=error").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("mail: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ActivationTemplate is the template carrying the activation code.
const ActivationTemplate = "activation-mail"

// ActivationData feeds ActivationTemplate.
type ActivationData struct {
	Name             string
	ActivationCode   string
	ExpiresInMinutes int
}
