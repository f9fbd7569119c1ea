package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ExchangeEvents     = "thaniel.events"
	QueueNotifications = "thaniel.notifications"

	EventOrderCreated  = "order.created"
	EventOrderPlaced   = "order.placed"
	EventOrderCanceled = "order.canceled"
	EventOrderSettled  = "order.settled"
	EventLowStock      = "inventory.low_stock"
)

type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderEventPayload struct {
	OrderID   int64  `json:"orderId"`
	OrderCode string `json:"orderCode"`
	Status    string `json:"status,omitempty"`
	Lines     int    `json:"lines,omitempty"`
}

type LowStockEventPayload struct {
	ItemID       int64   `json:"itemId"`
	Name         string  `json:"name"`
	CurrentStock float64 `json:"currentStock"`
	MinimumStock float64 `json:"minimumStock"`
	Unit         string  `json:"unit"`
}

func EnsureEventTopology(c *Client) error {
	if err := c.EnsureExchange(ExchangeEvents); err != nil {
		return err
	}
	if _, err := c.EnsureQueue(QueueNotifications); err != nil {
		return err
	}
	// '#' also matches multi-segment keys like inventory.low_stock.critical.
	if err := c.BindQueue(QueueNotifications, ExchangeEvents, "order.#"); err != nil {
		return err
	}
	return c.BindQueue(QueueNotifications, ExchangeEvents, "inventory.#")
}

func PublishEvent(ctx context.Context, c *Client, eventType string, payload any) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}
	return c.PublishJSON(ctx, ExchangeEvents, eventType, event)
}
