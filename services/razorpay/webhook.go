package razorpay

import (
	"encoding/json"
	"fmt"
)

// Refund lifecycle webhook events
const (
	EventRefundCreated   = "refund.created"
	EventRefundProcessed = "refund.processed"
	EventRefundCompleted = "refund.completed"
	EventRefundFailed    = "refund.failed"
)

// WebhookEvent is the envelope Razorpay posts to webhook endpoints
type WebhookEvent struct {
	Entity    string         `json:"entity"`
	AccountID string         `json:"account_id"`
	Event     string         `json:"event"`
	Contains  []string       `json:"contains"`
	Payload   WebhookPayload `json:"payload"`
	CreatedAt int64          `json:"created_at"`
}

// WebhookPayload carries the entities referenced by an event
type WebhookPayload struct {
	Refund *struct {
		Entity Refund `json:"entity"`
	} `json:"refund,omitempty"`
	Payment *struct {
		Entity Payment `json:"entity"`
	} `json:"payment,omitempty"`
}

// ParseWebhook decodes a webhook body
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("invalid webhook payload: missing event")
	}
	return &event, nil
}

// RefundEntity returns the refund carried by the event, if any
func (e *WebhookEvent) RefundEntity() *Refund {
	if e.Payload.Refund == nil {
		return nil
	}
	return &e.Payload.Refund.Entity
}

// IsRefundEvent reports whether the event belongs to the refund lifecycle
func (e *WebhookEvent) IsRefundEvent() bool {
	switch e.Event {
	case EventRefundCreated, EventRefundProcessed, EventRefundCompleted, EventRefundFailed:
		return true
	}
	return false
}
