// Package jobs holds the queue jobs the service dispatches.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adegaexpress/adega/pkg/notification"
	"github.com/adegaexpress/adega/pkg/queue"
)

// LowStockAlert tells operators a tracked product dropped to the alert
// threshold.
type LowStockAlert struct {
	ProductID   uint      `json:"productId"`
	ProductName string    `json:"productName"`
	Stock       int       `json:"stock"`
	Threshold   int       `json:"threshold"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurredAt"`

	sender notification.Sender
}

// LowStockAlertFactory registers the job with a queue manager.
func LowStockAlertFactory(sender notification.Sender) func() queue.Job {
	return func() queue.Job { return &LowStockAlert{sender: sender} }
}

func (j *LowStockAlert) Handle(ctx context.Context) error {
	if j.sender == nil {
		return errors.New("jobs: low stock alert has no sender")
	}
	return j.sender.Send(ctx, lowStockNotice{j})
}

type lowStockNotice struct {
	*LowStockAlert
}

func (lowStockNotice) Via() []string { return []string{"slack", "webhook", "mail"} }

func (n lowStockNotice) ToSlack() notification.SlackData {
	color := "warning"
	if n.Stock == 0 {
		color = "danger"
	}
	return notification.SlackData{
		Text: fmt.Sprintf("Low stock: %s", n.ProductName),
		Attachments: []notification.SlackAttachment{{
			Color:  color,
			Title:  fmt.Sprintf("%s has %d left", n.ProductName, n.Stock),
			Text:   fmt.Sprintf("Threshold %d. Last movement: %s.", n.Threshold, n.Reason),
			Footer: n.OccurredAt.Format(time.RFC3339),
		}},
	}
}

func (n lowStockNotice) ToWebhook() notification.WebhookData {
	return notification.WebhookData{
		Payload: map[string]interface{}{
			"event":       "low_stock",
			"productId":   n.ProductID,
			"productName": n.ProductName,
			"stock":       n.Stock,
			"threshold":   n.Threshold,
			"reason":      n.Reason,
			"occurredAt":  n.OccurredAt,
		},
	}
}

func (n lowStockNotice) ToMail() notification.MailData {
	return notification.MailData{
		Subject: fmt.Sprintf("[adega] Low stock: %s", n.ProductName),
		Text: fmt.Sprintf("%s has %d left (threshold %d).\nLast movement: %s at %s.\n",
			n.ProductName, n.Stock, n.Threshold, n.Reason, n.OccurredAt.Format(time.RFC3339)),
	}
}
