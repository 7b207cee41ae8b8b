package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher emits session lifecycle events to RabbitMQ. Publishing is
// best-effort: failures are logged and never interrupt the request flow.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewPublisher dials the broker and declares the lifecycle queues.
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, queue := range []string{QueueSessionStarted, QueueSessionStopped} {
		if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, err
		}
	}

	return &Publisher{conn: conn, channel: channel, logger: logger}, nil
}

// SessionStarted publishes a start event.
func (p *Publisher) SessionStarted(ctx context.Context, event SessionStarted) {
	p.publish(ctx, QueueSessionStarted, event)
}

// SessionStopped publishes a stop event.
func (p *Publisher) SessionStopped(ctx context.Context, event SessionStopped) {
	p.publish(ctx, QueueSessionStopped, event)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("event marshal failed", zap.String("queue", queue), zap.Error(err))
		return
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.channel.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.logger.Warn("event publish failed", zap.String("queue", queue), zap.Error(err))
	}
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
