package repository

import (
	"context"
	"fmt"

	"TradeDesk/internal/domain/models"
)

type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed
// by model id so one model's history stays ordered within a partition.
type KafkaEventPublisher struct {
	producer messageProducer
	topic    string
}

// NewKafkaEventPublisher accepts *pkgkafka.Producer.
func NewKafkaEventPublisher(producer messageProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev models.Event) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.Key()), ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
