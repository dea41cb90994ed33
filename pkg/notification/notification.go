// Package notification delivers operational alerts over Slack, plain JSON
// webhooks and email.
//
//	type LowStock struct{ Product string; Stock int }
//	func (n LowStock) Via() []string { return []string{"slack", "webhook", "mail"} }
//	func (n LowStock) ToSlack() notification.SlackData { ... }
//	func (n LowStock) ToWebhook() notification.WebhookData { ... }
//	func (n LowStock) ToMail() notification.MailData { ... }
//
//	err := notifier.Send(ctx, LowStock{...})
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/pkg/http"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/mail"
)

type SlackData struct {
	WebhookURL  string
	Text        string
	Attachments []SlackAttachment
}

type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // good | warning | danger
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData is POSTed as JSON to URL, or to the configured alert URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// Notification names the channels it goes out on: "slack", "webhook",
// "mail".
type Notification interface {
	Via() []string
}

type Slackable interface {
	ToSlack() SlackData
}

type Webhookable interface {
	ToWebhook() WebhookData
}

// MailData goes to To, or to the notifier's MailTo list when empty.
type MailData struct {
	To      []string
	Subject string
	Text    string
}

type Mailable interface {
	ToMail() MailData
}

// MailSender is satisfied by *mail.Mailer.
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Sender is what jobs depend on.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// ErrNotConfigured means a channel has no destination. Send skips such
// channels instead of failing.
var ErrNotConfigured = errors.New("notification: channel not configured")

type Notifier struct {
	WebhookURL string
	SlackURL   string
	Mailer     MailSender
	MailTo     []string
	Attempts   int
	Backoff    time.Duration
}

// New reads ALERT_WEBHOOK_URL, SLACK_WEBHOOK_URL and, for email,
// ALERT_EMAIL (comma separated) plus the MAIL_* relay settings.
func New() *Notifier {
	n := &Notifier{
		WebhookURL: config.AlertWebhookURL(),
		SlackURL:   config.SlackWebhookURL(),
		Attempts:   3,
		Backoff:    time.Second,
	}
	if m := mail.New(mail.FromConfig()); m.Configured() {
		n.Mailer = m
	}
	for _, addr := range strings.Split(config.Get("ALERT_EMAIL", ""), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			n.MailTo = append(n.MailTo, addr)
		}
	}
	return n
}

// Send delivers n on every channel it lists and joins the failures.
func (s *Notifier) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, channel := range n.Via() {
		err := s.dispatch(ctx, channel, n)
		if errors.Is(err, ErrNotConfigured) {
			logger.Debug("notification: channel skipped", "channel", channel)
			continue
		}
		if err != nil {
			logger.Error("notification: channel failed", "channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Notifier) dispatch(ctx context.Context, channel string, n Notification) error {
	switch channel {
	case "slack":
		sl, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return s.sendSlack(ctx, sl.ToSlack())
	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return s.sendWebhook(ctx, wh.ToWebhook())
	case "mail":
		ml, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return s.sendMail(ctx, ml.ToMail())
	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func (s *Notifier) sendSlack(ctx context.Context, d SlackData) error {
	url := d.WebhookURL
	if url == "" {
		url = s.SlackURL
	}
	if url == "" {
		return ErrNotConfigured
	}
	return s.post(ctx, url, slackPayload{Text: d.Text, Attachments: d.Attachments}, nil)
}

func (s *Notifier) sendWebhook(ctx context.Context, d WebhookData) error {
	url := d.URL
	if url == "" {
		url = s.WebhookURL
	}
	if url == "" {
		return ErrNotConfigured
	}
	return s.post(ctx, url, d.Payload, d.Headers)
}

func (s *Notifier) sendMail(ctx context.Context, d MailData) error {
	to := d.To
	if len(to) == 0 {
		to = s.MailTo
	}
	if s.Mailer == nil || len(to) == 0 {
		return ErrNotConfigured
	}
	return s.Mailer.Send(ctx, mail.Message{To: to, Subject: d.Subject, Text: d.Text})
}

func (s *Notifier) post(ctx context.Context, url string, body interface{}, headers map[string]string) error {
	req := http.Post(url).JSON(body).Retry(s.Attempts, s.Backoff)
	for k, v := range headers {
		req.Header(k, v)
	}
	resp, err := req.Send(ctx)
	if err != nil {
		return err
	}
	return resp.Err()
}
