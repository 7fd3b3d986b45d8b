package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SnigdhoNext27/bliss-store-api/internal/common"
	"github.com/SnigdhoNext27/bliss-store-api/internal/obs"
	"github.com/SnigdhoNext27/bliss-store-api/internal/queue"
)

const orderConfirmationTask = "order-confirmation"

// OrderConfirmationTask returns the queue kind used for confirmation emails.
func OrderConfirmationTask() string {
	return orderConfirmationTask
}

// ConfirmationPayload is the task body for an order confirmation email.
type ConfirmationPayload struct {
	OrderID      string `json:"orderId"`
	AnonID       string `json:"anonId"`
	Email        string `json:"email,omitempty"`
	TotalPayable int64  `json:"totalPayable"`
}

// ConfirmationSender renders and sends order confirmation emails.
type ConfirmationSender struct {
	Mail common.EmailSender
	From string
}

// Handle processes one confirmation task. A payload without a recipient is
// dropped without error so the task is not retried forever.
func (s ConfirmationSender) Handle(_ context.Context, task queue.Task) error {
	if s.Mail == nil {
		return errors.New("notify: email sender not configured")
	}
	var payload ConfirmationPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		countConfirmation("invalid")
		return fmt.Errorf("notify: decode confirmation payload: %w", err)
	}
	to := strings.TrimSpace(payload.Email)
	if to == "" {
		countConfirmation("skipped")
		return nil
	}
	subject := fmt.Sprintf("Order %s confirmed", payload.OrderID)
	body := confirmationBody(payload, time.Now())
	if err := s.Mail.Send(to, subject, body); err != nil {
		countConfirmation("error")
		return err
	}
	countConfirmation("ok")
	return nil
}

func confirmationBody(p ConfirmationPayload, at time.Time) string {
	var b strings.Builder
	b.WriteString("<h1>Thank you for your order!</h1>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> was confirmed on %s.</p>", p.OrderID, at.Format("2 January 2006"))
	fmt.Fprintf(&b, "<p>Amount payable: <strong>%d BDT</strong>.</p>", p.TotalPayable)
	b.WriteString("<p>We will notify you when your order ships.</p>")
	return b.String()
}

func countConfirmation(outcome string) {
	if obs.ConfirmationTaskTotal != nil {
		obs.ConfirmationTaskTotal.WithLabelValues(outcome).Inc()
	}
}
