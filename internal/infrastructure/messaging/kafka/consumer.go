package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// Handler processes one decoded scenario event.  Returning an error leaves
// the message uncommitted so it is redelivered.
type Handler func(ctx context.Context, env Envelope) error

// readerAPI abstracts kafka.Reader for testing.
type readerAPI interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the scenario events topic inside a consumer group.
type Consumer struct {
	reader readerAPI
	logger logging.Logger
}

// NewConsumer constructs a consumer for the scenario events topic.
func NewConsumer(cfg config.KafkaConfig, logger logging.Logger) *Consumer {
	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.ScenarioTopic,
		StartOffset: startOffset,
	})
	return &Consumer{reader: reader, logger: logger.Named("kafka_consumer")}
}

// Run fetches and handles messages until ctx is cancelled.  Undecodable
// messages are committed and skipped; handler failures leave the offset
// uncommitted for redelivery.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to fetch message")
		}

		env, err := DecodeEnvelope(msg.Value)
		if err != nil {
			c.logger.Warn("skipping undecodable message",
				logging.Int64("offset", msg.Offset), logging.Err(err))
			if err := c.commit(ctx, msg); err != nil {
				return err
			}
			continue
		}

		if err := handle(ctx, env); err != nil {
			c.logger.Error("event handler failed, message will be redelivered",
				logging.String("event_id", env.EventID),
				logging.String("event_type", env.EventType),
				logging.Err(err))
			continue
		}

		if err := c.commit(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to commit offset")
	}
	return nil
}

// Close shuts the reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
