package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-broker/internal/config"
	"github.com/couchcryptid/weather-broker/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces fresh weather snapshots to a Kafka topic.
// It implements driver.SnapshotPublisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// SnapshotMessage is the JSON value of every published message.
type SnapshotMessage struct {
	Instance    string          `json:"instance"`
	Provider    string          `json:"provider"`
	PublishedAt time.Time       `json:"published_at"`
	Ports       domain.Snapshot `json:"ports"`
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one snapshot keyed by instance id, so every instance's
// history lands on a single partition in order.
func (p *Publisher) Publish(ctx context.Context, instance, provider string, snap domain.Snapshot) error {
	msg, err := serializeToMessage(SnapshotMessage{
		Instance:    instance,
		Provider:    provider,
		PublishedAt: domain.Now(),
		Ports:       snap,
	})
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot message: %w", err)
	}
	p.logger.Debug("snapshot published", "instance", instance, "ports", len(snap))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(m SnapshotMessage) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.Instance),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "instance", Value: []byte(m.Instance)},
			{Key: "published_at", Value: []byte(m.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}
