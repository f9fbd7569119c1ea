package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessEventToNotifications materializes queue events into notifications
// rows for the back-office bell. Unknown event types are acked and dropped so
// new producers never wedge the consumer.
func ProcessEventToNotifications(ctx context.Context, db *pgxpool.Pool, body []byte) error {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		// Malformed payloads are not retryable.
		return nil
	}

	switch event.Type {
	case EventLowStock:
		var payload LowStockEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil
		}
		title := fmt.Sprintf("Low stock: %s", payload.Name)
		message := fmt.Sprintf("%s is down to %v %s (minimum %v)",
			payload.Name, payload.CurrentStock, payload.Unit, payload.MinimumStock)
		return insertNotification(ctx, db, event.ID, "low_stock", title, message)

	case EventOrderCreated, EventOrderPlaced, EventOrderCanceled, EventOrderSettled:
		var payload OrderEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil
		}
		title := fmt.Sprintf("Order %s", payload.OrderCode)
		message := orderEventMessage(event.Type, payload)
		return insertNotification(ctx, db, event.ID, "order", title, message)

	default:
		return nil
	}
}

func orderEventMessage(eventType string, payload OrderEventPayload) string {
	switch eventType {
	case EventOrderCreated:
		return fmt.Sprintf("Order %s created with status %s", payload.OrderCode, payload.Status)
	case EventOrderPlaced:
		return fmt.Sprintf("Order %s received %d item(s)", payload.OrderCode, payload.Lines)
	case EventOrderCanceled:
		return fmt.Sprintf("Order %s was canceled", payload.OrderCode)
	case EventOrderSettled:
		return fmt.Sprintf("Order %s was paid and settled", payload.OrderCode)
	default:
		return fmt.Sprintf("Order %s updated", payload.OrderCode)
	}
}

func insertNotification(ctx context.Context, db *pgxpool.Pool, eventID, category, title, message string) error {
	// event_id is unique so redelivered messages do not duplicate rows.
	_, err := db.Exec(ctx, `
		insert into notifications (event_id, category, title, message)
		values ($1, $2, $3, $4)
		on conflict (event_id) do nothing
	`, eventID, category, title, message)
	return err
}
