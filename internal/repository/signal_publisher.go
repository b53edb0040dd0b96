package repository

import (
	"context"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
	pkgkafka "WhaleRadar/pkg/kafka"
)

// KafkaSignalPublisher fans accepted signals out to a Kafka topic,
// keyed by symbol so consumers see per-symbol ordering.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka-backed signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) drepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
