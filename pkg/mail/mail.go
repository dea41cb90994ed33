// Package mail sends plain-text email over SMTP. Low-stock alerts use it
// as one of their notification channels.
//
//	m := mail.New(mail.FromConfig())
//	err := m.Send(ctx, mail.Message{To: []string{"gerente@adega.test"}, Subject: "...", Text: "..."})
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/adegaexpress/adega/config"
)

var ErrNoRecipients = errors.New("mail: no recipients")

// SMTP holds the relay settings. Host empty means mail is off.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// FromConfig reads MAIL_HOST, MAIL_PORT, MAIL_USERNAME, MAIL_PASSWORD,
// MAIL_FROM and MAIL_FROM_NAME.
func FromConfig() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", ""),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "alertas@adega.local"),
		FromName: config.Get("MAIL_FROM_NAME", "Adega Express"),
	}
}

type Message struct {
	To      []string
	Subject string
	Text    string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	cfg  SMTP
	send sendFunc
	now  func() time.Time
}

func New(cfg SMTP) *Mailer {
	m := &Mailer{cfg: cfg, now: time.Now}
	m.send = smtp.SendMail
	if cfg.Port == "465" {
		m.send = m.sendTLS
	}
	return m
}

func (m *Mailer) Configured() bool { return m.cfg.Host != "" }

// Send delivers msg. smtp has no cancellation, so ctx is only checked
// before dialing.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, m.cfg.From, msg.To, m.build(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", strings.Join(msg.To, ", "), err)
	}
	return nil
}

// sendTLS is SendMail over implicit TLS (port 465).
func (m *Mailer) sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit() //nolint:errcheck

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func (m *Mailer) build(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}
