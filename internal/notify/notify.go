// Package notify publishes transfer events for the services that deliver
// emails to recipients.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/MrJamesThe3rd/ordertransfer/internal/metrics"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

// LogNotifier only logs the events. It is used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, e transfer.Event) error {
	slog.Info("transfer notification",
		"event", e.Type,
		"order_id", e.OrderID,
		"recipient_account_id", e.RecipientAccountID,
		"recipient_email", e.RecipientEmail,
	)

	metrics.NotificationsTotal.WithLabelValues(string(e.Type)).Inc()

	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes each event as a JSON message keyed by order id, so
// events of one order stay ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: newWriter(brokers, topic)}
}

// Events are written one at a time from request handlers and the sweep, so
// the writer flushes every message instead of waiting for a batch to fill.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, e transfer.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding transfer event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.OrderID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Type)},
		},
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing transfer event: %w", err)
	}

	metrics.NotificationsTotal.WithLabelValues(string(e.Type)).Inc()

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
