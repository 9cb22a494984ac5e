package repository

import (
	"context"
	"fmt"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
	pkgkafka "LevelWatch/pkg/kafka"
)

// KafkaAlertPublisher implements Notifier by publishing fired alerts to a
// Kafka topic, keyed by symbol so one instrument's alerts stay ordered.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates a KafkaAlertPublisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

// Notify publishes the event.
func (p *KafkaAlertPublisher) Notify(ctx context.Context, event *models.AlertEvent) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(event.Symbol), event); err != nil {
		return fmt.Errorf("publish alert %s: %w", event.Symbol, err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.Notifier = (*KafkaAlertPublisher)(nil)
