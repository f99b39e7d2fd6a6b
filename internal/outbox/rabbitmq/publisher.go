// Package rabbitmq adapts internal/outbox.Publisher to an AMQP 0-9-1
// broker, grounded on the teacher's
// components/consumer/internal/adapters/rabbitmq/producer.rabbitmq.go
// publish shape (persistent delivery mode, JSON content type, a
// correlation header pulled from context).
package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const headerCorrelationID = "X-Correlation-Id"

// Publisher publishes outbox payloads to a fixed exchange over one
// AMQP channel. It is safe for concurrent use only to the extent the
// underlying *amqp.Channel is; callers that drain concurrently should
// give each Drainer its own channel.
type Publisher struct {
	Channel  *amqp.Channel
	Exchange string
}

// NewPublisher declares nothing; the exchange and any queues/bindings
// are expected to already exist via migrations or operator tooling,
// unlike the teacher's producer, whose connection owns the topology.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{Channel: ch, Exchange: exchange}
}

// Publish sends payload to p.Exchange under routingKey as a persistent
// message. The correlation ID, if present on ctx, rides along as a
// header so a consumer can tie a delivery back to the request that
// produced it.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	headers := amqp.Table{}

	if cid := correlationIDFromContext(ctx); cid != "" {
		headers[headerCorrelationID] = cid
	}

	err := p.Channel.PublishWithContext(ctx,
		p.Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         payload,
		})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish to exchange %q key %q: %w", p.Exchange, routingKey, err)
	}

	return nil
}

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation ID to ctx for Publish to
// forward as a header.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func correlationIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey{}).(string)
	return v
}
