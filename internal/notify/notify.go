// Package notify emails the site owner about new contact submissions.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Sender delivers one HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ContactSource streams contact events until ctx is cancelled.
type ContactSource interface {
	SubscribeContacts(ctx context.Context, handle func(context.Context, types.ContactEvent) error) error
}

// ResendSender sends mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

func NewResendSender(client *resend.Client, from string, logger zerolog.Logger) *ResendSender {
	return &ResendSender{client: client, from: from, logger: logger}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
		}
		return fmt.Errorf("resend: %w", err)
	}
	s.logger.Debug().Str("email_id", sent.Id).Msg("email sent")
	return nil
}

var contactTemplate = template.Must(template.New("contact").Parse(
	`<h2>New message from {{.Name}}</h2>` +
		`<p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>` +
		`<p><strong>Received:</strong> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>` +
		`<p style="white-space: pre-wrap">{{.Message}}</p>`,
))

// Worker turns contact events into notification emails.
type Worker struct {
	source ContactSource
	sender Sender
	to     string
	logger zerolog.Logger
}

// NewWorker validates cfg and builds a worker reading from source.
func NewWorker(source ContactSource, sender Sender, cfg config.NotifyConfig, logger zerolog.Logger) (*Worker, error) {
	if strings.TrimSpace(cfg.To) == "" {
		return nil, errors.New("NOTIFY_TO is required")
	}
	return &Worker{
		source: source,
		sender: sender,
		to:     cfg.To,
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// Run blocks until ctx is cancelled. A failed send is returned to the
// broker so the event is redelivered.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("to", w.to).Msg("notification worker started")
	err := w.source.SubscribeContacts(ctx, w.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) handle(ctx context.Context, event types.ContactEvent) error {
	var body bytes.Buffer
	if err := contactTemplate.Execute(&body, event); err != nil {
		return err
	}

	subject := fmt.Sprintf("Portfolio contact: %s", event.Name)
	if err := w.sender.Send(ctx, w.to, subject, body.String()); err != nil {
		w.logger.Error().Err(err).Int("contact_id", event.ID).Msg("notification failed")
		return err
	}
	w.logger.Info().Int("contact_id", event.ID).Msg("notification sent")
	return nil
}
