package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// Writer is the subset of kafka.Writer the channel needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes every notification as a JSON event keyed by recipient.
type Kafka struct {
	writer Writer
}

type kafkaEvent struct {
	ID        int64                  `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Recipient string                 `json:"recipient"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

func NewKafkaWithWriter(w Writer) *Kafka {
	return &Kafka{writer: w}
}

func (*Kafka) Name() string { return "kafka" }

func (k *Kafka) Send(ctx context.Context, n *models.Notification) error {
	value, err := json.Marshal(kafkaEvent{
		ID:        n.ID,
		Type:      n.Kind,
		Title:     n.Title,
		Message:   n.Body,
		Recipient: n.Recipient,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := kafka.Message{Key: []byte(n.Recipient), Value: value}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
