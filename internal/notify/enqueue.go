package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SnigdhoNext27/bliss-store-api/internal/events"
	"github.com/SnigdhoNext27/bliss-store-api/internal/queue"
)

// ConfirmationEnqueuer schedules a confirmation task for every created order.
// It implements events.Notifier and is registered on the event bus.
type ConfirmationEnqueuer struct {
	Queue       queue.Enqueuer
	MaxAttempts int
}

func (e ConfirmationEnqueuer) Notify(ctx context.Context, event events.Event) error {
	if event.Topic != events.TopicOrderCreated {
		return nil
	}
	if e.Queue.R == nil {
		return nil
	}
	var payload ConfirmationPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("notify: decode order created payload: %w", err)
		}
	}
	if payload.OrderID == "" {
		payload.OrderID = event.AggregateID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	return e.Queue.Enqueue(ctx, queue.Task{
		Kind:           orderConfirmationTask,
		Payload:        body,
		IdempotencyKey: payload.OrderID,
		MaxAttempts:    maxAttempts,
	})
}
