package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adegaexpress/adega/app/jobs"
	"github.com/adegaexpress/adega/pkg/mail"
	"github.com/adegaexpress/adega/pkg/notification"
	"github.com/adegaexpress/adega/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, n notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func decodeAlert(t *testing.T, sender notification.Sender, alert jobs.LowStockAlert) *jobs.LowStockAlert {
	t.Helper()
	raw, err := json.Marshal(alert)
	require.NoError(t, err)
	job := jobs.LowStockAlertFactory(sender)().(*jobs.LowStockAlert)
	require.NoError(t, json.Unmarshal(raw, job))
	return job
}

func TestLowStockAlert_SendsThroughSender(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(n notification.Notification) bool {
		return assert.ObjectsAreEqual([]string{"slack", "webhook", "mail"}, n.Via())
	})).Return(nil).Once()

	job := decodeAlert(t, sender, jobs.LowStockAlert{ProductID: 3, ProductName: "Heineken 600ml", Stock: 4, Threshold: 5})
	require.NoError(t, job.Handle(context.Background()))
	sender.AssertExpectations(t)
}

func TestLowStockAlert_PropagatesFailure(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("slack down"))

	job := decodeAlert(t, sender, jobs.LowStockAlert{ProductID: 3})
	assert.EqualError(t, job.Handle(context.Background()), "slack down")
}

func TestLowStockAlert_DeliversWebhookAndSlack(t *testing.T) {
	mt := testkit.InstallTransport(t,
		testkit.MockStep{MatchURL: "https://hooks.slack.test/", Required: true},
		testkit.MockStep{MatchURL: "https://alerts.test/", Required: true},
	)
	n := &notification.Notifier{
		WebhookURL: "https://alerts.test/stock",
		SlackURL:   "https://hooks.slack.test/T1",
		Attempts:   1,
	}

	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	job := decodeAlert(t, n, jobs.LowStockAlert{
		ProductID: 9, ProductName: "Gelo 5kg", Stock: 0, Threshold: 5, Reason: "order 12", OccurredAt: at,
	})
	require.NoError(t, job.Handle(context.Background()))
	assert.Empty(t, mt.Uncalled())

	sent := mt.Sent()
	require.Len(t, sent, 2)

	var slack struct {
		Text        string `json:"text"`
		Attachments []struct {
			Color string `json:"color"`
		} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(sent[0].Body, &slack))
	assert.Equal(t, "Low stock: Gelo 5kg", slack.Text)
	assert.Equal(t, "danger", slack.Attachments[0].Color)

	var hook map[string]interface{}
	require.NoError(t, json.Unmarshal(sent[1].Body, &hook))
	assert.Equal(t, "low_stock", hook["event"])
	assert.EqualValues(t, 9, hook["productId"])
	assert.Equal(t, "order 12", hook["reason"])
}

type captureMailer struct{ msgs []mail.Message }

func (c *captureMailer) Send(_ context.Context, msg mail.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestLowStockAlert_Mail(t *testing.T) {
	m := &captureMailer{}
	n := &notification.Notifier{Mailer: m, MailTo: []string{"ops@adega.test"}, Attempts: 1}

	job := decodeAlert(t, n, jobs.LowStockAlert{ProductID: 9, ProductName: "Gelo 5kg", Stock: 2, Threshold: 5, Reason: "order 12"})
	require.NoError(t, job.Handle(context.Background()))

	require.Len(t, m.msgs, 1)
	assert.Equal(t, "[adega] Low stock: Gelo 5kg", m.msgs[0].Subject)
	assert.Contains(t, m.msgs[0].Text, "Gelo 5kg has 2 left (threshold 5)")
}

func TestLowStockAlert_NoSender(t *testing.T) {
	assert.Error(t, (&jobs.LowStockAlert{}).Handle(context.Background()))
}
