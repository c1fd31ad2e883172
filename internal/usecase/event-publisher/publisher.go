package eventpublisher

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	errorsPkg "github.com/sora-xor/sora2-network-sub000/pkg/errors"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
)

// Config holds the Kafka settings of the event publisher.
type Config struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"orderbook.events"`
}

// Publisher writes order book events to a Kafka topic, keyed by the book
// id so one book's events stay ordered within a partition.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

var _ orderbookv1.EventSink = (*Publisher)(nil)

// NewPublisher creates a Kafka publisher for order book events.
func NewPublisher(config Config, log logger.Interface) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// Publish implements orderbookv1.EventSink.
func (p *Publisher) Publish(ctx context.Context, event orderbookv1.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errorsPkg.NewTracer("failed to marshal order book event").Wrap(err)
	}

	msg := kafka.Message{
		Key:   []byte(event.BookID.String()),
		Value: value,
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "kind", Value: string(event.Kind)},
			logger.Field{Key: "book", Value: event.BookID.String()},
		)
		return errorsPkg.NewTracer("failed to publish order book event").Wrap(err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
