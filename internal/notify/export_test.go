package notify

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageWriter lets tests swap the kafka writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaNotifierWithWriter(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

var NewWriter = newWriter
