package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer reads integration events from Kafka and dispatches them to the
// registered handlers. Offsets are committed only after a handler returns,
// so delivery is at-least-once and handlers must be idempotent.
type Consumer struct {
	reader  *kafka.Reader
	expired *DiscountExpiredHandler
	lg      *zap.Logger
}

// NewConsumer creates a consumer in the given group.
func NewConsumer(brokers []string, topic, groupID string, expired *DiscountExpiredHandler, lg *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0, // synchronous commits
		MaxWait:        time.Second,
	})
	return &Consumer{reader: reader, expired: expired, lg: lg}
}

// Run consumes until ctx is cancelled. It returns nil on cancellation and
// an error only on unrecoverable reader failures.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.lg.Error("close kafka reader", zap.Error(err))
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return errors.Wrap(err, "fetch message")
		}

		if err := c.dispatch(ctx, msg); err != nil {
			// Leave the offset uncommitted; the message is redelivered.
			c.lg.Error("event handling failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return errors.Wrap(err, "commit message")
		}
	}
}

// dispatch decodes and routes a single message. Undecodable messages are
// logged and dropped rather than redelivered forever.
func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message) error {
	event, err := Decode(msg.Value)
	if err != nil {
		c.lg.Error("dropping undecodable event",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return nil
	}

	switch e := event.(type) {
	case ProductDiscountExpired:
		return c.expired.Handle(ctx, e)
	default:
		c.lg.Warn("no handler for event", zap.String("type", event.EventType()))
		return nil
	}
}
