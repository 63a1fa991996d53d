// Package events publishes distribution lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes events as persistent JSON messages on a durable queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	// amqp channels must not be used for concurrent publishes
	mu sync.Mutex
}

var _ portssvc.EventPublisher = (*AMQPPublisher)(nil)

// DialAMQP connects to the broker at url and declares queue.
func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, queue: queue}, nil
}

// Publish sends event to the configured queue.
func (p *AMQPPublisher) Publish(ctx context.Context, event domain.DistributionEvent) error {
	msg, err := toPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s for run %s: %w", event.Type, event.RunID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func toPublishing(event domain.DistributionEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID + ":" + event.Type,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// LogPublisher writes events to a logger. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ portssvc.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.DistributionEvent) error {
	level := slog.LevelInfo
	if event.Type == domain.EventReconciliationRequired {
		level = slog.LevelWarn
	}
	p.logger.Log(context.Background(), level, "Distribution event",
		slog.String("type", event.Type),
		slog.String("run_id", event.RunID),
		slog.String("project_id", event.ProjectID),
		slog.String("status", string(event.Status)),
		slog.String("failed_step", string(event.FailedStep)),
		slog.String("message", event.Message),
	)
	return nil
}
