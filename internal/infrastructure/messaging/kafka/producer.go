package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// writerAPI abstracts kafka.Writer for testing.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements scenario.EventPublisher over a Kafka topic.  Messages
// are keyed by aggregate ID so all events for one scenario stay ordered
// within a partition.
type Publisher struct {
	writer writerAPI
	logger logging.Logger
	closed atomic.Bool
}

// NewPublisher constructs a publisher for the scenario events topic.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ScenarioTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  max(cfg.ProducerRetries, 1),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &Publisher{writer: writer, logger: logger.Named("kafka_publisher")}
}

func (p *Publisher) Publish(ctx context.Context, events ...scenario.DomainEvent) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeMessagingError, "publisher is closed")
	}
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		value, err := encodeEvent(e)
		if err != nil {
			return err
		}
		msgs[i] = kafka.Message{
			Key:   []byte(e.AggregateID()),
			Value: value,
		}
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to publish scenario events")
	}
	p.logger.Debug("published scenario events", logging.Int("count", len(msgs)))
	return nil
}

// Close flushes and shuts the writer down.
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
