// Package kafka publishes processed-document alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes one JSON message per alert, keyed by document id.
type Publisher struct {
	writer MessageWriter
}

var _ ports.Notifier = (*Publisher)(nil)

// NewPublisher connects a writer to the topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return NewPublisherWithWriter(kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		Balancer:    &kafkago.Hash{},
		MaxAttempts: 3,
	}))
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Name identifies the channel in logs.
func (p *Publisher) Name() string { return "kafka" }

// Notify publishes the alert.
func (p *Publisher) Notify(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(strconv.FormatInt(alert.DocumentID, 10)),
		Value: payload,
		Time:  alert.ProcessedAt,
		Headers: []kafkago.Header{
			{Key: "regulator", Value: []byte(alert.Regulator)},
			{Key: "published_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
