package mail

import (
	"context"

	"identity-service/internal/config"
	"identity-service/internal/domain/notification"
	"identity-service/internal/logger"

	"go.uber.org/zap"
)

// LogMailer stands in for SMTP when no host is configured. It renders the
// template to catch errors early and logs only the envelope; parameters such
// as codes and links are never written out.
type LogMailer struct {
	renderer *Renderer
}

var _ notification.Mailer = (*LogMailer)(nil)

func NewLogMailer(renderer *Renderer) *LogMailer {
	return &LogMailer{renderer: renderer}
}

func (m *LogMailer) Send(_ context.Context, msg notification.Message) error {
	if _, err := m.renderer.Render(msg.Template, msg.Data); err != nil {
		return err
	}

	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}

	logger.Info("Email delivery skipped, SMTP not configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", string(msg.Template)),
		zap.Strings("params", keys),
	)
	return nil
}

// NewMailer picks SMTP when a host is configured and the log mailer otherwise.
func NewMailer(cfg config.SMTPConfig) (notification.Mailer, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		return NewLogMailer(renderer), nil
	}
	return NewSMTPMailer(cfg, renderer)
}
