package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ Publisher = (*KafkaBroker)(nil)

// KafkaBroker publishes integration events to a Kafka topic. Writes are
// synchronous: Publish does not return until the broker has acknowledged
// the message, which gives callers the ordered-after-mutation guarantee
// they rely on.
type KafkaBroker struct {
	writer *kafka.Writer
	lg     *zap.Logger
}

// NewKafkaBroker creates a broker writing to the given topic.
func NewKafkaBroker(brokers []string, topic string, lg *zap.Logger) *KafkaBroker {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaBroker{writer: writer, lg: lg}
}

// Publish encodes the event and writes it, keyed by the event's partition
// key so events for the same aggregate stay ordered.
func (b *KafkaBroker) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.EventType())},
		},
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write %s", event.EventType())
	}

	b.lg.Debug("event published",
		zap.String("type", event.EventType()),
		zap.String("key", event.Key()),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
