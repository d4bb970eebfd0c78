package notification

import "context"

// Template names a transactional email layout known to every Mailer.
type Template string

const (
	TemplateActivation     Template = "activation-mail"
	TemplateForgotPassword Template = "forgot-password"
)

type Message struct {
	To       string
	Subject  string
	Template Template
	Data     map[string]string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
