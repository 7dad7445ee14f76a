package mail

import (
	"context"
	"log/slog"

	"learnhub/pkg/requestcontext"
)

// LogMailer renders messages but only logs that they would have been sent.
// Used when no SMTP server is configured. Bodies are never logged because
// they carry activation codes.
type LogMailer struct {
	renderer *Renderer
	logger   *slog.Logger
}

func NewLogMailer(renderer *Renderer, logger *slog.Logger) *LogMailer {
	return &LogMailer{renderer: renderer, logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	body, err := m.renderer.Render(msg.TemplateName, msg.TemplateData)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "mail delivery suppressed",
		"request_id", requestcontext.RequestID(ctx),
		"template", msg.TemplateName,
		"subject", msg.Subject,
		"body_bytes", len(body),
	)
	return nil
}
