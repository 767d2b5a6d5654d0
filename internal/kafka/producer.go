package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the event bus needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes order lifecycle events to Kafka, keyed by order id so
// events of one order stay on one partition.
type EventBus struct {
	writer MessageWriter
}

func NewEventBus(writer MessageWriter) *EventBus {
	return &EventBus{writer: writer}
}

// NewWriter builds a synchronous writer for brokers. Topics are set per message.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		Compression:            kafka.Snappy,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			slog.Error(fmt.Sprintf("kafka writer: "+msg, args...))
		}),
	}
}

func (b *EventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return b.publish(ctx, TopicOrderCreated, order.ID, newOrderCreatedEvent(order))
}

func (b *EventBus) PublishOrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	return b.publish(ctx, TopicOrderStatusChanged, order.ID, newOrderStatusChangedEvent(order, previous))
}

func (b *EventBus) Close() error {
	return b.writer.Close()
}

func (b *EventBus) publish(ctx context.Context, topic, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	err = b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
