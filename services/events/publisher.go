// Package events publishes payment domain events to RabbitMQ. Publishing is
// best-effort: failures are returned so the caller can log and move on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/trace"
)

// DefaultQueue receives every payment event
const DefaultQueue = "payment.events"

// Envelope wraps every published event
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	TraceID    string      `json:"trace_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher keeps one AMQP connection and channel open and re-dials after failures
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher creates a publisher. The broker is dialed on first use.
func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{url: url, queue: queue, logger: logger}
}

// Publish sends one persistent JSON message to the events queue
func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	msg, err := buildMessage(ctx, eventType, payload, time.Now().UTC())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	p.logger.DebugContext(ctx, "event published", "event", eventType, "queue", p.queue)
	return nil
}

// channel returns the open channel, dialing when needed. Caller holds mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func buildMessage(ctx context.Context, eventType string, payload interface{}, now time.Time) (amqp.Publishing, error) {
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		TraceID:    trace.FromContext(ctx),
		OccurredAt: now,
		Data:       payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     now,
		MessageId:     env.ID,
		Type:          eventType,
		CorrelationId: env.TraceID,
		Body:          body,
	}, nil
}
