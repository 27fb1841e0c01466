package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events keyed by loan id, so one loan's events stay
// ordered within a partition.
type KafkaSink struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewKafkaSink(logger *slog.Logger, brokers, topic string, writeTimeout time.Duration) (*KafkaSink, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka loan events topic is not configured")
	}
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{logger: logger, writer: w, topic: topic}, nil
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Deliver(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal loan event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.LoanID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "sfd_id", Value: []byte(evt.SfdID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish loan event to %s: %w", k.topic, err)
	}
	k.logger.Debug("published loan event", "topic", k.topic, "loan_id", evt.LoanID, "type", evt.Type)
	return nil
}

func (k *KafkaSink) Close() error {
	k.logger.Info("closing kafka loan event writer", "topic", k.topic)
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", k.topic, err)
	}
	return nil
}
