package mail

import (
	"context"
	"fmt"

	"identity-service/internal/config"
	"identity-service/internal/domain/notification"
	"identity-service/internal/logger"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPMailer renders templates and delivers them over SMTP.
type SMTPMailer struct {
	client   *gomail.Client
	from     string
	renderer *Renderer
}

var _ notification.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.SMTPConfig, renderer *Renderer) (*SMTPMailer, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From, renderer: renderer}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg notification.Message) error {
	body, err := m.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}

	message := gomail.NewMsg()
	if err := message.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(gomail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Template, err)
	}

	logger.Debug("Email sent",
		zap.String("to", msg.To),
		zap.String("template", string(msg.Template)),
	)
	return nil
}
