package notify

import (
	"context"
	"fmt"

	"meal-kart/internal/config"
	"meal-kart/internal/model"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	client sendgridAPI
	from   *mail.Email
	logger zerolog.Logger
}

// NewSendGridMailer creates a mailer using the configured API key and sender.
func NewSendGridMailer(cfg config.EmailConfig, logger zerolog.Logger) *SendGridMailer {
	return newSendGridMailer(sendgrid.NewSendClient(cfg.APIKey), cfg, logger)
}

func newSendGridMailer(client sendgridAPI, cfg config.EmailConfig, logger zerolog.Logger) *SendGridMailer {
	return &SendGridMailer{
		client: client,
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger.With().Str("component", "sendgrid").Logger(),
	}
}

// Send delivers msg. Non-2xx responses are reported as external errors.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "recipient is required")
	}

	email := mail.NewV3MailInit(m.from, msg.Subject, mail.NewEmail("", msg.To), mail.NewContent("text/html", msg.HTML))

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return model.NewExternalError(model.ErrCodeNotificationFailure, "failed to send email", err)
	}
	if resp.StatusCode >= 300 {
		return model.NewExternalError(model.ErrCodeNotificationFailure,
			"failed to send email",
			fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body))
	}

	m.logger.Debug().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("status", resp.StatusCode).
		Msg("email sent")
	return nil
}

// LogMailer records messages instead of sending them. It is used when email
// delivery is disabled.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "mailer").Logger()}
}

// Send logs the recipient and subject.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email delivery disabled, message not sent")
	return nil
}
