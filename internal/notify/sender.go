package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Mailer delivers an HTML email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

// ChatNotifier posts a message to the team chat.
type ChatNotifier interface {
	PostMessage(ctx context.Context, text string) error
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *ResendMailer) SendEmail(ctx context.Context, to, subject, html string) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

type SlackNotifier struct {
	webhookURL string
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
	}
}

func (n *SlackNotifier) PostMessage(ctx context.Context, text string) error {
	if err := slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{Text: text}); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

// LogSender stands in for both channels when no provider is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{
		logger: logger,
	}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, html string) error {
	s.logger.Info("email not sent, no mail provider configured",
		zap.String("to", to), zap.String("subject", subject), zap.Int("bytes", len(html)))
	return nil
}

func (s *LogSender) PostMessage(_ context.Context, text string) error {
	s.logger.Info("chat message not sent, no webhook configured", zap.String("text", text))
	return nil
}

// Deliverer renders a notification and sends it on its channel.
type Deliverer struct {
	templates *TemplateStore
	mailer    Mailer
	chat      ChatNotifier
}

func NewDeliverer(templates *TemplateStore, mailer Mailer, chat ChatNotifier) *Deliverer {
	return &Deliverer{
		templates: templates,
		mailer:    mailer,
		chat:      chat,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, n Notification) error {
	body, err := d.templates.Render(n.Template, n.Data)
	if err != nil {
		return err
	}
	switch n.Kind {
	case KindEmail:
		if n.Recipient == "" {
			return fmt.Errorf("notification %s has no recipient", n.ID)
		}
		return d.mailer.SendEmail(ctx, n.Recipient, n.Subject, body)
	case KindChat:
		return d.chat.PostMessage(ctx, body)
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}
