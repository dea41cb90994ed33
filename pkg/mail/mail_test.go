package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	addr string
	from string
	to   []string
	raw  string
	auth bool
}

func fakeMailer(cfg SMTP, fail error) (*Mailer, *captured) {
	got := &captured{}
	m := New(cfg)
	m.now = func() time.Time { return time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC) }
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*got = captured{addr: addr, from: from, to: to, raw: string(msg), auth: a != nil}
		return fail
	}
	return m, got
}

func TestSend(t *testing.T) {
	m, got := fakeMailer(SMTP{Host: "smtp.adega.test", Port: "587", Username: "u", From: "alertas@adega.test", FromName: "Adega"}, nil)

	err := m.Send(context.Background(), Message{
		To:      []string{"gerente@adega.test", "dono@adega.test"},
		Subject: "Estoque baixo: Gelo 5kg",
		Text:    "Restam 2.\nLimite 5.",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.adega.test:587", got.addr)
	assert.Equal(t, "alertas@adega.test", got.from)
	assert.Equal(t, []string{"gerente@adega.test", "dono@adega.test"}, got.to)
	assert.True(t, got.auth)
	assert.Contains(t, got.raw, "From: Adega <alertas@adega.test>\r\n")
	assert.Contains(t, got.raw, "To: gerente@adega.test, dono@adega.test\r\n")
	assert.Contains(t, got.raw, "Subject: Estoque baixo: Gelo 5kg\r\n")
	assert.True(t, strings.HasSuffix(got.raw, "\r\n\r\nRestam 2.\r\nLimite 5."))
}

func TestSendErrors(t *testing.T) {
	m, _ := fakeMailer(SMTP{Host: "smtp.adega.test", Port: "25"}, errors.New("421 busy"))

	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorContains(t, m.Send(context.Background(), Message{To: []string{"a@b.test"}}), "421 busy")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: []string{"a@b.test"}}), context.Canceled)
}

func TestConfigured(t *testing.T) {
	assert.False(t, New(SMTP{}).Configured())
	assert.True(t, New(SMTP{Host: "smtp.adega.test"}).Configured())
}
